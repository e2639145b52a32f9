package session

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps the in-memory sessions in step with the sessions directory:
// when a session file is removed or renamed away, the session is dropped
// from memory.
type Watcher struct {
	manager *Manager
	dir     string
	logger  *zap.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching dir. Call Run to process events.
func NewWatcher(manager *Manager, dir string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		manager: manager,
		dir:     dir,
		logger:  logger,
		watcher: fw,
	}, nil
}

// Run handles file events until ctx is cancelled, then closes the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.logger.Info("watching sessions directory", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("sessions watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	id, ok := SessionIDFromFile(event.Name)
	if !ok {
		return
	}

	// The file may already be back in place
	if _, err := os.Stat(event.Name); err == nil {
		return
	}

	if err := w.manager.DeleteFromMemory(id); err == nil {
		w.logger.Info("pruned session from memory (file deleted)", zap.String("session", id))
	}
}
