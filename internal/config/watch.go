package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"aicaps/internal/logging"
)

// DefaultReloadDebounce coalesces the burst of events editors emit per save
const DefaultReloadDebounce = 250 * time.Millisecond

// Watcher reloads configuration when one of the watched files changes.
// Directories are watched rather than files so that atomic renames and
// files created after startup are still picked up.
type Watcher struct {
	files    map[string]bool
	debounce time.Duration
	reload   func() (Config, error)
	logger   *logging.Logger
}

// NewWatcher watches paths and reloads the merged configuration via Load
func NewWatcher(paths []string, logger *logging.Logger) *Watcher {
	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p != "" {
			files[filepath.Clean(p)] = true
		}
	}
	return &Watcher{
		files:    files,
		debounce: DefaultReloadDebounce,
		reload:   Load,
		logger:   logger,
	}
}

// Run blocks until ctx is done, calling onChange with every configuration
// that reloads and validates. Invalid files are logged and ignored.
func (w *Watcher) Run(ctx context.Context, onChange func(Config)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer fsw.Close()

	watched := 0
	for dir := range w.dirs() {
		if _, statErr := os.Stat(dir); statErr != nil {
			continue
		}
		if addErr := fsw.Add(dir); addErr != nil {
			w.logger.Warn("config.watch.add_failed", "Cannot watch config directory", map[string]interface{}{
				"dir":   dir,
				"error": addErr.Error(),
			})
			continue
		}
		watched++
	}
	if watched == 0 {
		w.logger.Debug("config.watch.skipped", "No config directory to watch", nil)
		<-ctx.Done()
		return nil
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(event.Name)] || event.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(w.debounce)

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config.watch.error", "Config watcher error", map[string]interface{}{
				"error": watchErr.Error(),
			})

		case <-timer.C:
			cfg, loadErr := w.reload()
			if loadErr != nil {
				w.logger.Warn("config.reload.failed", "Keeping previous configuration", map[string]interface{}{
					"error": loadErr.Error(),
				})
				continue
			}
			w.logger.Info("config.reload.ok", "Configuration reloaded", nil)
			onChange(cfg)
		}
	}
}

func (w *Watcher) dirs() map[string]struct{} {
	dirs := make(map[string]struct{}, len(w.files))
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	return dirs
}
