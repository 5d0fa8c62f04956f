package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultSocketPath      = "/var/run/fail2ban/fail2ban.sock"
	DefaultPollInterval    = 30 * time.Second
	DefaultDialTimeout     = 5 * time.Second
	DefaultIOTimeout       = 10 * time.Second
	DefaultListenAddr      = ":9191"
	DefaultMetricsPath     = "/metrics"
	DefaultNetstatInterval = 15 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

// Environment variables that override file values.
const (
	EnvSocketPath   = "FAIL2BAN_EXPORTER_SOCKET_PATH"
	EnvListenAddr   = "FAIL2BAN_EXPORTER_LISTEN_ADDR"
	EnvPollInterval = "FAIL2BAN_EXPORTER_POLL_INTERVAL"
	EnvLogLevel     = "FAIL2BAN_EXPORTER_LOG_LEVEL"
)

// Config is the top-level exporter configuration.
type Config struct {
	Exporter ExporterConfig `yaml:"exporter"`
	API      APIConfig      `yaml:"api"`
	Netstat  NetstatConfig  `yaml:"netstat"`
	Log      LogConfig      `yaml:"log"`
}

// ExporterConfig holds the fail2ban polling and exposition settings.
type ExporterConfig struct {
	// SocketPath is the fail2ban server's Unix socket.
	SocketPath string `yaml:"socket_path"`

	// PollInterval is the period between two poll cycles.
	PollInterval time.Duration `yaml:"poll_interval"`

	// DialTimeout bounds connecting to the socket.
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// IOTimeout bounds the write and the full read of one request.
	IOTimeout time.Duration `yaml:"io_timeout"`

	// ListenAddr is the TCP address of the HTTP server (host:port).
	ListenAddr string `yaml:"listen_addr"`

	// MetricsPath is where the Prometheus exposition is served.
	MetricsPath string `yaml:"metrics_path"`
}

// APIConfig toggles the JSON status API.
type APIConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NetstatConfig configures the host network I/O sampler.
type NetstatConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// LogConfig selects the slog handler and level.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | text.
	Format string `yaml:"format"`
}

// SlogLevel maps Level to a slog.Level. Unknown values map to info;
// validate rejects them before they get here.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Exporter: ExporterConfig{
			SocketPath:   DefaultSocketPath,
			PollInterval: DefaultPollInterval,
			DialTimeout:  DefaultDialTimeout,
			IOTimeout:    DefaultIOTimeout,
			ListenAddr:   DefaultListenAddr,
			MetricsPath:  DefaultMetricsPath,
		},
		API: APIConfig{Enabled: true},
		Netstat: NetstatConfig{
			Interval: DefaultNetstatInterval,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvSocketPath); v != "" {
		cfg.Exporter.SocketPath = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.Exporter.ListenAddr = v
	}
	if v := os.Getenv(EnvPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		cfg.Exporter.PollInterval = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	e := cfg.Exporter
	if e.SocketPath == "" {
		return fmt.Errorf("exporter.socket_path is required")
	}
	if e.PollInterval <= 0 {
		return fmt.Errorf("exporter.poll_interval must be positive")
	}
	if e.DialTimeout <= 0 {
		return fmt.Errorf("exporter.dial_timeout must be positive")
	}
	if e.IOTimeout <= 0 {
		return fmt.Errorf("exporter.io_timeout must be positive")
	}
	if e.ListenAddr == "" {
		return fmt.Errorf("exporter.listen_addr is required")
	}
	if !strings.HasPrefix(e.MetricsPath, "/") {
		return fmt.Errorf("exporter.metrics_path must start with /, got %q", e.MetricsPath)
	}
	if e.MetricsPath == "/api/" || strings.HasPrefix(e.MetricsPath, "/api/v1/") {
		return fmt.Errorf("exporter.metrics_path %q collides with the status API", e.MetricsPath)
	}
	if cfg.Netstat.Enabled && cfg.Netstat.Interval <= 0 {
		return fmt.Errorf("netstat.interval must be positive")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Log.Format)
	}
	return nil
}
