// Package watch reloads a snapshot file whenever it is written and hands the
// decoded values to a callback.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/layering"
)

// Handler receives each successfully decoded snapshot. An error is logged and
// watching continues.
type Handler func(ctx context.Context, snapshot map[string]any) error

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger reports load and handler failures.
func WithLogger(logger params.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce coalesces bursts of events, such as an editor's truncate
// followed by write (default 100ms).
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithInitialLoad delivers the current file contents before waiting for
// changes.
func WithInitialLoad() Option {
	return func(w *Watcher) {
		w.initial = true
	}
}

// Watcher follows a single snapshot file.
type Watcher struct {
	path     string
	handler  Handler
	logger   params.Logger
	debounce time.Duration
	initial  bool
}

// New prepares a watcher for path. Nothing is watched until Run.
func New(path string, handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		handler:  handler,
		logger:   params.NoopLogger(),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run blocks until ctx is done. The parent directory is watched so files
// replaced by rename are still picked up.
func (w *Watcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(w.path), err)
	}
	if w.initial {
		w.reload(ctx)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if w.debounce == 0 {
				w.reload(ctx)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			w.reload(ctx)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("snapshot watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	layer, err := layering.ReadFile(w.path)
	if err != nil {
		w.logger.Error("snapshot reload failed", "path", w.path, "error", err)
		return
	}
	if err := w.handler(ctx, layer.Values); err != nil {
		w.logger.Error("snapshot handler failed", "path", w.path, "error", err)
		return
	}
	w.logger.Info("snapshot reloaded", "path", w.path, "count", len(layer.Values))
}
