package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/obsidianstack/fail2ban-exporter/internal/compute"
	"github.com/obsidianstack/fail2ban-exporter/internal/fail2ban"
	"github.com/obsidianstack/fail2ban-exporter/internal/metrics"
	"github.com/obsidianstack/fail2ban-exporter/internal/store"
)

// Error stages reported on fail2ban_exporter_errors_total.
const (
	stageDiscover = "discover"
	stageStatus   = "status"
)

// Poller polls fail2ban and publishes jail metrics to a Sink.
type Poller struct {
	cfg    Config
	client Commander
	sink   metrics.Sink
	store  *store.Store

	banned *compute.Reconciler
	failed *compute.Reconciler

	now func() time.Time
}

// Option customises a Poller.
type Option func(*Poller)

// WithStore records every cycle outcome into st for the status API.
func WithStore(st *store.Store) Option {
	return func(p *Poller) { p.store = st }
}

// WithReconcilers injects the reconcilers for the banned and failed totals.
func WithReconcilers(banned, failed *compute.Reconciler) Option {
	return func(p *Poller) {
		p.banned = banned
		p.failed = failed
	}
}

// New creates a poller with immutable config.
func New(cfg Config, client Commander, sink metrics.Sink, opts ...Option) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	if sink == nil {
		return nil, errors.New("poller: sink required")
	}
	p := &Poller{
		cfg:    cfg,
		client: client,
		sink:   sink,
		now:    time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if p.banned == nil {
		p.banned = compute.NewReconciler("banned_total")
	}
	if p.failed == nil {
		p.failed = compute.NewReconciler("failed_total")
	}
	return p, nil
}

// PollOnce performs exactly one poll cycle.
func (p *Poller) PollOnce(ctx context.Context) CycleResult {
	start := p.now()
	res := CycleResult{At: start}

	raw, err := p.client.Send(ctx, fail2ban.CmdStatus)
	if err != nil {
		res.Err = err
		res.Duration = p.now().Sub(start)
		slog.Warn("poller: fail2ban not responding", "err", err)
		p.sink.Set(metrics.Up, nil, 0)
		p.sink.Add(metrics.ExporterErrors, map[string]string{metrics.LabelStage: stageDiscover}, 1)
		p.sink.Set(metrics.PollDuration, nil, res.Duration.Seconds())
		if p.store != nil {
			p.store.SetLiveness(store.Liveness{Up: false, Err: err.Error(), PolledAt: start})
		}
		return res
	}

	res.Up = true
	p.sink.Set(metrics.Up, nil, 1)

	res.Jails = fail2ban.ParseJailList(raw)
	slog.Debug("poller: discovered jails", "jails", res.Jails)

	for _, jail := range res.Jails {
		if ctx.Err() != nil {
			break
		}
		if err := p.pollJail(ctx, jail); err != nil {
			slog.Warn("poller: jail status failed", "jail", jail, "err", err)
			p.sink.Add(metrics.ExporterErrors, map[string]string{metrics.LabelStage: stageStatus}, 1)
			if p.store != nil {
				p.store.PutError(jail, err)
			}
			res.Failed = append(res.Failed, jail)
		}
	}

	res.Duration = p.now().Sub(start)
	p.sink.Set(metrics.PollDuration, nil, res.Duration.Seconds())
	if p.store != nil {
		p.store.SetLiveness(store.Liveness{
			Up:       true,
			PolledAt: start,
			Jails:    len(res.Jails),
			Failed:   len(res.Failed),
		})
	}

	slog.Info("poller: cycle complete",
		"jails", len(res.Jails),
		"failed", len(res.Failed),
		"duration", res.Duration,
	)
	return res
}

// pollJail fetches one jail and publishes whatever fields were reported.
func (p *Poller) pollJail(ctx context.Context, jail string) error {
	raw, err := p.client.Send(ctx, fail2ban.JailStatusCommand(jail))
	if err != nil {
		return err
	}

	st := fail2ban.ParseJailStatus(raw)
	labels := map[string]string{metrics.LabelJail: jail}

	if st.CurrentlyBanned != nil {
		p.sink.Set(metrics.JailBannedCurrent, labels, float64(*st.CurrentlyBanned))
	}
	if st.CurrentlyFailed != nil {
		p.sink.Set(metrics.JailFailedCurrent, labels, float64(*st.CurrentlyFailed))
	}
	if st.TotalBanned != nil {
		if d := p.banned.Reconcile(jail, *st.TotalBanned); d > 0 {
			p.sink.Add(metrics.JailBannedTotal, labels, float64(d))
		}
	}
	if st.TotalFailed != nil {
		if d := p.failed.Reconcile(jail, *st.TotalFailed); d > 0 {
			p.sink.Add(metrics.JailFailedTotal, labels, float64(d))
		}
	}

	if p.store != nil {
		p.store.PutStats(jail, st)
	}
	slog.Debug("poller: jail updated", "jail", jail,
		"banned", deref(st.CurrentlyBanned), "failed", deref(st.CurrentlyFailed))
	return nil
}

func deref(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
