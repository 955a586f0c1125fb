package session

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchStorage tears the session down when the credential database at path is removed
// or renamed, the terminal equivalent of site data being cleared. onClear, if set, runs
// after teardown. It blocks until ctx is done.
func (s *Session) WatchStorage(ctx context.Context, path string, onClear func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				continue
			}
			s.logger.Info("credential storage cleared, ending session", "path", abs)
			s.Teardown()
			if onClear != nil {
				onClear()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("storage watcher error", "error", err)
		}
	}
}
