// Package watcher reports settled changes to individual files.
//
// Editors usually save by writing a temporary file and renaming it over the
// original, which replaces the inode, so the watcher observes each file's
// parent directory and filters events down to the watched names.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType names the kind of settled change.
type EventType string

const (
	EventAdded    EventType = "added"
	EventModified EventType = "modified"
	EventRemoved  EventType = "removed"
)

// Event is a settled change to a watched file. Size and ModTime are zero
// for EventRemoved.
type Event struct {
	Type    EventType
	Path    string
	Size    int64
	ModTime time.Time
}

// Options tunes the watcher. The zero value is usable.
type Options struct {
	// SettleDelay is how long size and mtime must stay unchanged before an
	// event fires. Defaults to 500ms.
	SettleDelay time.Duration
	// Ignore holds filepath.Match patterns tested against base names.
	// Defaults to common editor swap and backup names.
	Ignore []string
}

var defaultIgnore = []string{"*.swp", "*~", ".#*", "*.tmp"}

func (o Options) withDefaults() Options {
	if o.SettleDelay <= 0 {
		o.SettleDelay = 500 * time.Millisecond
	}
	if o.Ignore == nil {
		o.Ignore = defaultIgnore
	}
	return o
}

func (o Options) ignored(path string) bool {
	base := filepath.Base(path)
	return slices.ContainsFunc(o.Ignore, func(pattern string) bool {
		ok, err := filepath.Match(pattern, base)
		return err == nil && ok
	})
}

// Watcher monitors a set of files for changes.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	// files maps each watched path to whether it existed at the last
	// settled event; dirs counts watched files per directory.
	mu      sync.Mutex
	files   map[string]bool
	pending map[string]*pendingEvent
	dirs    map[string]int

	events   chan Event
	errors   chan error
	done     chan struct{}
	stopOnce sync.Once
}

// pendingEvent tracks a file that may still be changing.
type pendingEvent struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a new file watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: fw,
		files:   make(map[string]bool),
		pending: make(map[string]*pendingEvent),
		dirs:    make(map[string]int),
		events:  make(chan Event, 16),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a file to be monitored. The file need not exist yet, but its
// directory must.
func (w *Watcher) Watch(path string) error {
	path, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[path]; ok {
		return nil
	}
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add watch: %w", err)
		}
	}
	w.dirs[dir]++

	_, statErr := os.Stat(path)
	w.files[path] = statErr == nil

	w.logger.Debug("watching file", "path", path)
	return nil
}

// Start processes events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
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
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("dropping watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	_, watched := w.files[path]
	w.mu.Unlock()

	if !watched || w.opts.ignored(path) {
		return
	}

	// Remove and Rename also settle: a rename-over save is followed by a
	// Create for the same name, so whether the file is gone is decided by
	// the stat in checkSettled.
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.startSettling(path)
	}
}

// startSettling (re)starts the settle timer for path.
func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, exists := w.pending[path]
	if exists {
		p.timer.Stop()
	} else {
		p = &pendingEvent{}
		w.pending[path] = p
	}

	if info, err := os.Stat(path); err == nil {
		p.size, p.modTime = info.Size(), info.ModTime()
	} else {
		p.size, p.modTime = -1, time.Time{}
	}

	p.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(path) })
}

// checkSettled emits an event once the file has stopped changing.
func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()

	p, exists := w.pending[path]
	if !exists {
		w.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		existed := w.files[path]
		w.files[path] = false
		w.mu.Unlock()

		if existed {
			w.emit(Event{Type: EventRemoved, Path: path})
		}
		return
	}

	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size, p.modTime = info.Size(), info.ModTime()
		p.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(path) })
		w.mu.Unlock()
		return
	}

	delete(w.pending, path)
	eventType := EventModified
	if !w.files[path] {
		eventType = EventAdded
	}
	w.files[path] = true
	w.mu.Unlock()

	w.emit(Event{
		Type:    eventType,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

func (w *Watcher) emit(event Event) {
	select {
	case w.events <- event:
	case <-w.done:
	}
}

// Events returns the channel of settled file events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources. The Events channel is not
// closed; consumers should stop on their own context.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, p := range w.pending {
			p.timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		err = w.watcher.Close()
	})
	return err
}
