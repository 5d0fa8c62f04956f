package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/obsidianstack/fail2ban-exporter/internal/api"
	"github.com/obsidianstack/fail2ban-exporter/internal/config"
	"github.com/obsidianstack/fail2ban-exporter/internal/fail2ban"
	"github.com/obsidianstack/fail2ban-exporter/internal/metrics"
	"github.com/obsidianstack/fail2ban-exporter/internal/netstat"
	"github.com/obsidianstack/fail2ban-exporter/internal/poller"
	"github.com/obsidianstack/fail2ban-exporter/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and environment only when empty)")
	once := flag.Bool("once", false, "run a single poll cycle, print the metrics and exit")
	flag.Parse()

	// -once prints the exposition on stdout, so logs move to stderr.
	logOut := os.Stdout
	if *once {
		logOut = os.Stderr
	}

	var level slog.LevelVar
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: &level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	setupLogging(logOut, cfg.Log, &level)

	slog.Info("fail2ban-exporter starting",
		"config", *configPath,
		"socket", cfg.Exporter.SocketPath,
		"listen_addr", cfg.Exporter.ListenAddr,
		"poll_interval", cfg.Exporter.PollInterval,
	)

	client := fail2ban.NewClient(cfg.Exporter.SocketPath,
		fail2ban.WithDialTimeout(cfg.Exporter.DialTimeout),
		fail2ban.WithIOTimeout(cfg.Exporter.IOTimeout),
	)
	reg := metrics.New()
	st := store.New()

	p, err := poller.New(poller.Config{Interval: cfg.Exporter.PollInterval}, client, reg, poller.WithStore(st))
	if err != nil {
		slog.Error("failed to build poller", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		code := runOnce(ctx, p, reg)
		cancel()
		os.Exit(code)
	}

	if cfg.Netstat.Enabled {
		s, err := netstat.New(cfg.Netstat.Interval, reg)
		if err != nil {
			slog.Error("failed to build netstat sampler", "err", err)
			os.Exit(1)
		}
		go s.Run(ctx)
	}

	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				// Only the log level is applied live; everything else
				// needs a restart.
				level.Set(updated.Log.SlogLevel())
				slog.Info("config hot-reloaded", "log_level", updated.Log.Level)
			}); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	go p.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle(cfg.Exporter.MetricsPath, reg.Handler())
	if cfg.API.Enabled {
		mux.Handle("/api/", api.New(st))
	}
	if err := metrics.Serve(ctx, cfg.Exporter.ListenAddr, mux); err != nil {
		slog.Error("HTTP server stopped", "err", err)
		cancel()
		os.Exit(1)
	}

	slog.Info("fail2ban-exporter shutting down")
}

// setupLogging swaps in the configured handler and level.
func setupLogging(w io.Writer, cfg config.LogConfig, level *slog.LevelVar) {
	level.Set(cfg.SlogLevel())
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		slog.SetDefault(slog.New(slog.NewTextHandler(w, opts)))
		return
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, opts)))
}

// runOnce polls a single time and prints the exposition to stdout. The exit
// code is 1 when fail2ban did not answer discovery.
func runOnce(ctx context.Context, p *poller.Poller, reg *metrics.Registry) int {
	res := p.PollOnce(ctx)
	if err := reg.WriteText(os.Stdout); err != nil {
		slog.Error("failed to write metrics", "err", err)
		return 1
	}
	if !res.Up {
		return 1
	}
	return 0
}
