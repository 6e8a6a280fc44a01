package corpus

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher reloads corpus-backed backends when their JSONL files change.
// Parent directories are watched so a corpus file created after startup is
// picked up too. Reload failures keep the previous corpus in place.
type Watcher struct {
	reloads  map[string]func() error // corpus file path -> reload
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timers   map[string]*time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for reload and event logging.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the reload debounce interval.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher with no files registered.
func NewWatcher(opts ...WatcherOption) *Watcher {
	w := &Watcher{
		reloads:  make(map[string]func() error),
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch registers a corpus file and the reload to run when it changes.
// Must be called before Start.
func (w *Watcher) Watch(path string, reload func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	w.reloads[filepath.Clean(abs)] = reload
	return nil
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if len(w.reloads) == 0 {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true

	dirs := make(map[string]struct{})
	for path := range w.reloads {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			w.watcher = nil
			w.started = false
			w.mu.Unlock()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	if w.logger != nil {
		w.logger.Debug("corpus watcher starting", zap.Int("files", len(w.reloads)))
	}
	w.mu.Unlock()

	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("corpus watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	w.mu.Lock()
	_, tracked := w.reloads[path]
	w.mu.Unlock()
	if !tracked {
		return
	}
	if w.logger != nil {
		w.logger.Debug("corpus event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0:
		w.debounceReload(path)
	case ev.Op&fsnotify.Remove != 0:
		w.cancelDebounce(path)
	}
}

func (w *Watcher) debounceReload(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		reload := w.reloads[path]
		logger := w.logger
		w.mu.Unlock()
		if reload == nil {
			return
		}
		if err := reload(); err != nil {
			if logger != nil {
				logger.Warn("corpus reload failed, keeping previous corpus",
					zap.String("path", path), zap.Error(err))
			}
			return
		}
		if logger != nil {
			logger.Info("corpus reloaded", zap.String("path", path))
		}
	})
	w.timers[path] = t
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
