package poller

import (
	"context"
	"time"
)

// Commander sends one command to fail2ban and returns the raw response.
// *fail2ban.Client implements it.
type Commander interface {
	Send(ctx context.Context, command string) (string, error)
}

// Config is the runtime config the poller needs.
type Config struct {
	Interval time.Duration
}

// CycleResult summarises one poll cycle.
type CycleResult struct {
	At       time.Time
	Duration time.Duration

	// Up is false when discovery failed; Err then holds the cause.
	Up  bool
	Err error

	// Jails lists the discovered jails in upstream order.
	Jails []string

	// Failed lists jails whose stats fetch failed.
	Failed []string
}
