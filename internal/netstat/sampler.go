package netstat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/obsidianstack/fail2ban-exporter/internal/metrics"
)

// CountersFunc returns interface counters. With pernic false gopsutil
// returns a single aggregated entry.
type CountersFunc func(ctx context.Context, pernic bool) ([]psnet.IOCountersStat, error)

// Sampler publishes aggregated network counters to a Sink.
type Sampler struct {
	interval time.Duration
	sink     metrics.Sink
	counters CountersFunc
}

// New creates a Sampler using gopsutil's IOCountersWithContext.
func New(interval time.Duration, sink metrics.Sink) (*Sampler, error) {
	if interval <= 0 {
		return nil, errors.New("netstat: interval must be > 0")
	}
	if sink == nil {
		return nil, errors.New("netstat: sink required")
	}
	return &Sampler{
		interval: interval,
		sink:     sink,
		counters: psnet.IOCountersWithContext,
	}, nil
}

// SampleOnce reads the counters once and updates the gauges.
func (s *Sampler) SampleOnce(ctx context.Context) error {
	stats, err := s.counters(ctx, false)
	if err != nil {
		return fmt.Errorf("netstat: io counters: %w", err)
	}
	if len(stats) == 0 {
		return errors.New("netstat: io counters: no data")
	}

	// Sum in case the platform ignores pernic=false.
	var total psnet.IOCountersStat
	for _, st := range stats {
		total.BytesSent += st.BytesSent
		total.BytesRecv += st.BytesRecv
		total.PacketsSent += st.PacketsSent
		total.PacketsRecv += st.PacketsRecv
		total.Errin += st.Errin
		total.Errout += st.Errout
	}

	s.sink.Set(metrics.NetBytesSent, nil, float64(total.BytesSent))
	s.sink.Set(metrics.NetBytesRecv, nil, float64(total.BytesRecv))
	s.sink.Set(metrics.NetPacketsSent, nil, float64(total.PacketsSent))
	s.sink.Set(metrics.NetPacketsRecv, nil, float64(total.PacketsRecv))
	s.sink.Set(metrics.NetErrorsIn, nil, float64(total.Errin))
	s.sink.Set(metrics.NetErrorsOut, nil, float64(total.Errout))
	return nil
}

// Run samples immediately, then once per interval, until ctx is cancelled.
// Failures are logged and the next tick retries.
func (s *Sampler) Run(ctx context.Context) {
	slog.Info("netstat: starting", "interval", s.interval)

	sample := func() {
		if err := s.SampleOnce(ctx); err != nil {
			slog.Warn("netstat: sample failed", "err", err)
		}
	}
	sample()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample()
		}
	}
}
