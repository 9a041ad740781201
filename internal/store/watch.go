package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	watchDebounce = 500 * time.Millisecond
	// Writes we made ourselves show up as file events too.
	selfWriteGrace = 2 * time.Second
)

// Watch reloads the store when the database file at path is changed by
// another process. Reloads only happen while the store has no pending
// changes, so local edits are never discarded. Watch returns once the watcher
// is running; it stops when ctx is done.
func (s *Store) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// The directory is more reliable than the file: sqlite replaces the
	// journal and wal siblings as it writes.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	filename := filepath.Base(absPath)
	log := s.logger.WithField("path", absPath)
	log.Info("watching database for remote changes")

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasPrefix(filepath.Base(event.Name), filename) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, func() {
					s.reloadIfClean(ctx)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("database watcher error")
			}
		}
	}()
	return nil
}

func (s *Store) reloadIfClean(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.HasChanges() {
		s.logger.Debug("remote change ignored: local changes pending")
		return
	}
	if last := s.LastFlush(); !last.IsZero() && time.Since(last) < selfWriteGrace {
		return
	}
	if err := s.Load(ctx); err != nil {
		s.logger.WithError(err).Warn("reload after remote change failed")
	}
}
