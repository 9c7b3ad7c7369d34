// Package watch reports changes made to the book file by other processes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the file must stay quiet before a change is reported.
const DefaultDebounce = 150 * time.Millisecond

// Watcher watches a single file. It watches the parent directory so the
// file may be created, replaced or removed while watched.
type Watcher struct {
	name     string // base name of the watched file
	dir      string
	fw       *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
	changes  chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLogger sets the logger for watcher events and errors.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a Watcher for path. Call Start to begin delivering changes.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolving %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{
		name:     filepath.Base(abs),
		dir:      filepath.Dir(abs),
		fw:       fw,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		changes:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch: adding %s: %w", w.dir, err)
	}
	return w, nil
}

// Changes delivers one value per settled burst of changes. Bursts that
// arrive while a previous notification is unread are coalesced.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start runs the event loop in a goroutine until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx)
}

// Close stops the event loop and releases the underlying watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if err := w.fw.Close(); err != nil {
		return fmt.Errorf("watch: closing: %w", err)
	}
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != w.name || !relevant(ev.Op) {
				continue
			}
			w.logger.Debug("book file event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
			timer.Reset(w.debounce)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}

// relevant reports whether op can change the file's contents.
func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}
