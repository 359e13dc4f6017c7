package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// CacheInvalidator drops cached audio for a path.
type CacheInvalidator interface {
	InvalidateCache(path string)
}

// Watcher watches audio files for changes and invalidates the cache.
// Parent directories are watched so files replaced by rename are still seen.
type Watcher struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	invalidator CacheInvalidator

	// Watched file paths
	watchedPaths map[string]struct{}

	fsw    *fsnotify.Watcher
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a new audio file watcher.
func NewWatcher(invalidator CacheInvalidator, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		logger:       logger,
		invalidator:  invalidator,
		watchedPaths: make(map[string]struct{}),
	}
}

// Watch adds a path to the watch list. Paths added after Start are picked
// up immediately.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.watchedPaths[path] = struct{}{}
	if w.running {
		w.addDir(path)
	}
}

// Start begins watching audio files for changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	w.doneCh = make(chan struct{})
	w.running = true

	for path := range w.watchedPaths {
		w.addDir(path)
	}

	go w.watchLoop(ctx, fsw, w.doneCh)

	w.logger.Debug("audio watcher started", "files", len(w.watchedPaths))
	return nil
}

// Stop stops watching audio files.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	fsw, doneCh := w.fsw, w.doneCh
	w.mu.Unlock()

	_ = fsw.Close()
	<-doneCh
	w.logger.Debug("audio watcher stopped")
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// addDir registers the parent directory of path. Caller holds w.mu.
func (w *Watcher) addDir(path string) {
	dir := filepath.Dir(path)
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Warn("failed to watch sound directory", "dir", dir, "error", err)
	}
}

// watchLoop forwards relevant fsnotify events until the watcher closes.
func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("audio watcher error", "error", err)
		}
	}
}

// handleEvent invalidates the cache when a watched file changes.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	path := filepath.Clean(event.Name)

	w.mu.RLock()
	_, watched := w.watchedPaths[path]
	w.mu.RUnlock()

	if !watched {
		return
	}

	w.logger.Debug("audio file changed, invalidating cache", "path", path, "op", event.Op.String())
	if w.invalidator != nil {
		w.invalidator.InvalidateCache(path)
	}
}
