package statefile

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/triage/pkg/logger"
)

// Reloader re-reads a config file on demand, keeping the last known
// good parse when a re-read fails validation. An fsnotify watch marks
// the file dirty so unchanged files are not re-parsed every tick; if
// the watch cannot be established the file is simply re-read on every
// Get.
type Reloader[T any] struct {
	path  string
	parse func([]byte) (T, error)

	mu      sync.Mutex
	dirty   bool
	watched bool
	loaded  bool
	current T

	watcher *fsnotify.Watcher
	log     logger.Logger
}

// NewReloader creates a reloader for path using parse. The initial
// read happens on the first Get.
func NewReloader[T any](path string, parse func([]byte) (T, error), log logger.Logger) *Reloader[T] {
	r := &Reloader[T]{path: path, parse: parse, dirty: true, log: log}
	r.startWatch()
	return r
}

func (r *Reloader[T]) startWatch() {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	// Watch the parent directory so rename-replace writes are seen;
	// a watch on the file itself dies with the old inode.
	if err := w.Add(filepath.Dir(r.path)); err != nil {
		w.Close()
		return
	}
	r.watcher = w
	r.watched = true
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name == r.path {
					r.mu.Lock()
					r.dirty = true
					r.mu.Unlock()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}

// Get returns the current value, re-reading the file when it changed.
// A failed re-read keeps the previous valid value; the error is
// returned alongside it so callers can log and carry on.
func (r *Reloader[T]) Get(ctx context.Context) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded && r.watched && !r.dirty {
		return r.current, nil
	}

	data, err := readFile(r.path)
	if err != nil {
		return r.current, err
	}
	v, err := r.parse(data)
	if err != nil {
		if r.log != nil {
			r.log.Warn(ctx, "config reload rejected, keeping last known good",
				logger.String("path", r.path), logger.Error(err))
		}
		return r.current, err
	}
	r.current = v
	r.loaded = true
	r.dirty = false
	return r.current, nil
}

// Close releases the fsnotify watch.
func (r *Reloader[T]) Close() error {
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}
