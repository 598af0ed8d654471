package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads the configuration overlay file in development so
// cache TTLs and feature flags can be tuned without a restart. Reload never
// touches credentials or database identifiers: those stay fixed for the
// process lifetime because half the pipeline has already captured them.
type Watcher struct {
	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher creates a configuration watcher. Outside development, or when
// no CONFIG_FILE is set, it is inert and only serves Current().
func NewWatcher(initial *Config, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		current: initial,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}

	overlay := os.Getenv("CONFIG_FILE")
	if initial.Environment != Development || overlay == "" {
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(overlay); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", overlay, err)
	}
	w.watcher = fsWatcher

	go w.watchLoop(overlay)
	logger.Info("configuration hot reload enabled", zap.String("file", overlay))

	return w, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnReload registers a callback invoked with each successfully reloaded
// configuration. Callbacks run on the watcher goroutine and must not block.
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Stop tears down the file watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) watchLoop(overlay string) {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload(overlay)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload(overlay string) {
	fresh, err := LoadConfig()
	if err != nil {
		w.logger.Warn("config reload rejected", zap.String("file", overlay), zap.Error(err))
		return
	}

	w.mu.Lock()
	// Immutable-for-the-process settings carry over from the original.
	fresh.NotionAPIKey = w.current.NotionAPIKey
	fresh.CharactersDBID = w.current.CharactersDBID
	fresh.ElementsDBID = w.current.ElementsDBID
	fresh.PuzzlesDBID = w.current.PuzzlesDBID
	fresh.TimelineDBID = w.current.TimelineDBID
	fresh.Port = w.current.Port
	w.current = fresh
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded", zap.String("file", overlay))
	for _, fn := range callbacks {
		fn(fresh)
	}
}
