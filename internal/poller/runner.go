package poller

import (
	"context"
	"log/slog"
	"time"
)

// Run polls immediately, then once per interval, until ctx is cancelled.
// Cycles never overlap: a cycle that overruns the interval delays the next
// tick instead of stacking.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("poller: starting", "interval", p.cfg.Interval)

	p.PollOnce(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller: stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}
