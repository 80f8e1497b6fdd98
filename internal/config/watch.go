package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file whenever it changes on disk and delivers
// each successfully parsed config to onReload. Editors that replace the
// file (rename+create) are handled by watching the parent directory.
// The returned stop function closes the watcher.
func Watch(path string, logger *slog.Logger, onReload func(*Config)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	target := filepath.Clean(path)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("config reload skipped", "path", path, "error", err)
					continue
				}
				if err := cfg.Validate(); err != nil {
					logger.Warn("config reload rejected", "path", path, "error", err)
					continue
				}
				logger.Info("config reloaded", "path", path)
				onReload(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			}
		}
	}()

	return watcher.Close, nil
}
