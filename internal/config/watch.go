package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// reloadOps are the directory events that can change the config contents.
// A rename of a temp file over path arrives as Create on path.
const reloadOps = fsnotify.Write | fsnotify.Create

// Watch calls onChange with the newly loaded Config whenever the file at
// path is written or replaced. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file, so replacing the
// file by rename keeps the watch alive. A path that is a symlink into a
// swapped directory (a Kubernetes ConfigMap mount) reloads when the link
// target changes. A reload that fails validation is logged and skipped;
// onChange is not called and the previous config stays in effect.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	target := filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}
	// Fail early on a missing file; the directory watch alone would
	// silently wait for it to appear.
	if _, err := Load(target); err != nil {
		return err
	}

	resolved, _ := filepath.EvalSymlinks(target)

	slog.Info("config: watching for changes", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&reloadOps == 0 {
				continue
			}
			current, _ := filepath.EvalSymlinks(target)
			if filepath.Clean(event.Name) != target && current == resolved {
				continue
			}
			resolved = current
			reload(target, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

func reload(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		slog.Error("config: reload failed, keeping previous config",
			"path", path, "err", err)
		return
	}
	slog.Info("config: reloaded", "path", path, "log_level", cfg.Log.Level)
	onChange(cfg)
}
