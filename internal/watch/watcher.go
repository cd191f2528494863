// Package watch reports settled changes to submission files in a directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"animreview/internal/logging"
	"animreview/internal/source"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a path must stay quiet before it is reported.
const DefaultDebounce = 300 * time.Millisecond

// Event is a batch of paths whose changes have settled.
type Event struct {
	Paths []string
	Time  time.Time
}

// Stats counts watcher activity.
type Stats struct {
	Created   int
	Modified  int
	Removed   int
	Batches   int
	Errors    int
	LastPath  string
	LastEvent time.Time
}

// Options select which files matter.
type Options struct {
	Pattern  string   // submission glob, source.DefaultPattern when empty
	Exclude  []string // base names never reported as submissions
	Base     string   // base template name, reported even though excluded
	Debounce time.Duration
}

// Watcher watches one directory. Events are delivered on Events until the
// watcher stops, at which point the channel is closed.
type Watcher struct {
	mu      sync.RWMutex
	fs      *fsnotify.Watcher
	dir     string
	opts    Options
	pending map[string]time.Time
	events  chan Event
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	stopped bool
	stats   Stats
	logger  *zap.Logger
}

// New prepares a watcher for dir. logger may be nil.
func New(dir string, opts Options, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Pattern == "" {
		opts.Pattern = source.DefaultPattern
	}
	return &Watcher{
		fs:      fw,
		dir:     dir,
		opts:    opts,
		pending: make(map[string]time.Time),
		events:  make(chan Event, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		logger:  logging.Named(logger, logging.CategoryWatch),
	}, nil
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if w.stopped {
		return fmt.Errorf("watcher for %s already stopped", w.dir)
	}
	if err := w.fs.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.running = true
	w.logger.Info("watching directory", zap.String("dir", w.dir), zap.String("pattern", w.opts.Pattern))

	go w.run(ctx)
	return nil
}

// Stop ends the event loop and releases the fsnotify handle. It is safe to
// call more than once and after the context was cancelled.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	wasRunning := w.running
	w.running = false
	w.stopped = true
	w.mu.Unlock()

	close(w.stopCh)
	if wasRunning {
		<-w.doneCh
	} else {
		close(w.events)
	}

	if err := w.fs.Close(); err != nil {
		w.logger.Error("failed to close watcher", zap.Error(err))
	}
	w.logger.Info("watcher stopped")
}

// Events delivers debounced batches.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// Dir is the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Relevant reports whether a path is a submission or the base template.
func (w *Watcher) Relevant(path string) bool {
	if w.opts.Base != "" && filepath.Base(path) == w.opts.Base {
		return true
	}
	return source.Matches(path, w.opts.Pattern, w.opts.Exclude...)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.events)

	tick := w.opts.Debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("context cancelled")
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			if batch := w.settled(); len(batch) > 0 {
				select {
				case w.events <- Event{Paths: batch, Time: time.Now()}:
				case <-ctx.Done():
					return
				case <-w.stopCh:
					return
				}
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !w.Relevant(ev.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case ev.Op.Has(fsnotify.Create):
		w.stats.Created++
	case ev.Op.Has(fsnotify.Write):
		w.stats.Modified++
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.stats.Removed++
	default:
		return // chmod
	}
	w.stats.LastPath = ev.Name
	w.stats.LastEvent = time.Now()
	w.pending[ev.Name] = time.Now()
	w.logger.Debug("change", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
}

// settled drains paths that have been quiet for the debounce window.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var out []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.opts.Debounce {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	if len(out) > 0 {
		sort.Strings(out)
		w.stats.Batches++
	}
	return out
}
