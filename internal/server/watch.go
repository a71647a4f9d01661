package server

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever path is written or replaced, until ctx
// is cancelled. The directory is watched rather than the file so atomic
// renames are seen.
func (s *Server) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	s.logger.Info("watching snapshot for changes", "path", absPath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.logger.Debug("snapshot changed", "event", event.Op.String(), "file", event.Name)
			if err := s.Reload(); err != nil {
				s.logger.Error("snapshot reload failed", "error", err)
				continue
			}
			s.logger.Info("snapshot reloaded", "path", absPath)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("file watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
