package preset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses bursts of file events into one reload.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a Book when its preset file changes on disk.
type Watcher struct {
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func()
}

// NewWatcher watches the directory holding path. onChange runs on the
// watcher goroutine after each debounced burst.
func NewWatcher(path string, onChange func(), logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		logger:   logger,
		watcher:  w,
		path:     abs,
		debounce: DefaultDebounce,
		onChange: onChange,
	}, nil
}

// WatchBook is NewWatcher wired to b.Reload.
func WatchBook(ctx context.Context, path string, b *Book, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := NewWatcher(path, func() {
		if err := b.Reload(); err != nil {
			logger.Warn("preset reload failed", zap.Error(err))
			return
		}
		logger.Info("presets reloaded", zap.String("path", path), zap.Int("count", b.Len()))
	}, logger)
	if err != nil {
		return nil, err
	}
	w.Start(ctx)
	return w, nil
}

// Start processes events until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	go func() {
		defer timer.Stop()
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if w.relevant(event) {
					w.logger.Debug("preset file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
					timer.Reset(w.debounce)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("watcher error", zap.Error(err))
			case <-timer.C:
				w.onChange()
			case <-ctx.Done():
				_ = w.watcher.Close()
				return
			}
		}
	}()
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}
