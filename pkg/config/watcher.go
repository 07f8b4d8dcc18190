package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watcher wraps an fsnotify watcher bound to one config file.
type watcher struct {
	fs   *fsnotify.Watcher
	path string
}

// Watch starts watching the config file and calls onChange with the freshly
// loaded configuration after each change. The parent directory is watched
// rather than the file itself, so atomic replace-by-rename saves are picked
// up too. Files that fail to load after a change are logged and skipped.
func (l *Loader) Watch(ctx context.Context, path string, onChange func(*Config)) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fs.Add(dir); err != nil {
		_ = fs.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	l.watcher = &watcher{fs: fs, path: filepath.Clean(path)}

	go l.processEvents(ctx, onChange)

	l.logger.Info().
		Str("path", path).
		Msg("Started watching config file")

	return nil
}

// processEvents processes file system events and triggers reloads.
func (l *Loader) processEvents(ctx context.Context, onChange func(*Config)) {
	// Debounce reload events
	var reloadTimer *time.Timer
	reloadDelay := 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if l.watcher != nil {
				_ = l.watcher.fs.Close()
			}
			return

		case event, ok := <-l.watcher.fs.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != l.watcher.path {
				continue
			}

			l.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Config file changed")

			// Debounce reload
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(reloadDelay, func() {
				cfg, err := l.Load(l.watcher.path)
				if err != nil {
					l.logger.Error().Err(err).Msg("Failed to reload config")
					return
				}
				l.logger.Info().Msg("Config reloaded")
				onChange(cfg)
			})

		case err, ok := <-l.watcher.fs.Errors:
			if !ok {
				return
			}
			l.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// StopWatching stops watching for file changes.
func (l *Loader) StopWatching() error {
	if l.watcher != nil {
		return l.watcher.fs.Close()
	}
	return nil
}
