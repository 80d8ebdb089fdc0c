package storage

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/events"
)

// Change reports that the value under Key was written by someone, possibly
// another process sharing the store directory.
type Change struct {
	Key string
	Op  string
}

// Watcher surfaces external writes to a FileStore directory. Bursts of
// filesystem events for one key are coalesced into a single Change.
type Watcher struct {
	mu         sync.Mutex
	watcher    *fsnotify.Watcher
	dir        string
	onChange   func(Change)
	debounce   time.Duration
	debouncers map[string]*events.Debouncer
	stopCh     chan struct{}
	doneCh     chan struct{}
	running    bool
	logger     *zap.Logger
}

func NewWatcher(dir string, debounce time.Duration, onChange func(Change), logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:    fw,
		dir:        dir,
		onChange:   onChange,
		debounce:   debounce,
		debouncers: make(map[string]*events.Debouncer),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		logger:     logger,
	}, nil
}

// Start begins watching in a goroutine. It is a no-op when already running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.logger.Info("watching store directory", zap.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

// Stop ends the event loop, drops pending changes and closes the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	for key, d := range w.debouncers {
		d.Stop()
		delete(w.debouncers, key)
	}
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("close store watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("store watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	key, ok := KeyFromPath(event.Name)
	if !ok {
		return
	}

	var op string
	switch {
	case event.Op&fsnotify.Create != 0:
		op = "create"
	case event.Op&fsnotify.Write != 0:
		op = "write"
	case event.Op&fsnotify.Remove != 0:
		op = "remove"
	case event.Op&fsnotify.Rename != 0:
		op = "rename"
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	d, ok := w.debouncers[key]
	if !ok {
		d = events.NewDebouncer(w.debounce)
		w.debouncers[key] = d
	}
	change := Change{Key: key, Op: op}
	d.Trigger(func() {
		w.logger.Debug("store changed", zap.String("key", change.Key), zap.String("op", change.Op))
		w.onChange(change)
	})
}
