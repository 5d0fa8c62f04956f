// Package config loads and watches the exporter configuration file.
//
// Top-level types:
//   - Config{Exporter, API, Netstat, Log}: full config tree parsed from YAML
//   - ExporterConfig: socket_path, poll_interval, dial_timeout, io_timeout,
//     listen_addr, metrics_path
//   - APIConfig: enables the JSON status API under /api/v1/
//   - NetstatConfig: optional host network counter sampler
//   - LogConfig: level (debug|info|warn|error) and format (json|text)
//
// Load(path) applies defaults (fail2ban socket under /var/run, 30s poll,
// :9191 listener), overlays the YAML file when path is non-empty, applies
// FAIL2BAN_EXPORTER_* environment overrides, then validates.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It re-adds the watch after each
// event so atomic-save editors (rename then create) keep working.
package config
