package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/pinvokegen/errors"
	"github.com/teranos/pinvokegen/logger"
)

// Watcher reports changes to a fixed set of files. It watches their parent
// directories so a file replaced by rename (editors, Save) stays watched.
type Watcher struct {
	files     map[string]bool
	fsw       *fsnotify.Watcher
	callbacks []ChangeCallback
	debounce  time.Duration
	timer     *time.Timer
	mu        sync.Mutex
	done      chan struct{}
}

// ChangeCallback receives the last path that changed within a debounce window
type ChangeCallback func(path string) error

// NewWatcher watches paths, which must exist
func NewWatcher(paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		files:    make(map[string]bool, len(paths)),
		fsw:      fsw,
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}
	dirs := map[string]bool{}
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err == nil {
			_, err = os.Stat(abs)
		}
		if err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", path)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
	}
	return w, nil
}

func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounce = d
	w.mu.Unlock()
}

func (w *Watcher) OnChange(callback ChangeCallback) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Start runs the event loop in the background until Stop
func (w *Watcher) Start() {
	go w.loop()
}

// Done is closed once the event loop has exited
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&changeOps == 0 {
				continue
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || !w.files[name] {
				continue
			}
			logger.Debugw("Watched file changed", logger.FieldFile, name, "op", ev.Op.String())
			w.schedule(name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warnw("File watcher error", logger.FieldError, err)
		}
	}
}

// schedule restarts the debounce timer; the last path wins
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.fire(path) })
}

func (w *Watcher) fire(path string) {
	// the cached configuration may be stale
	if filepath.Ext(path) == ".toml" {
		Reset()
	}

	w.mu.Lock()
	callbacks := append([]ChangeCallback(nil), w.callbacks...)
	w.mu.Unlock()

	for _, cb := range callbacks {
		if err := cb(path); err != nil {
			logger.Warnw("Change callback failed", logger.FieldFile, path, logger.FieldError, err)
		}
	}
}
