package monitor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sharelite/client/internal/logger"

	"github.com/fsnotify/fsnotify"
)

const (
	eventQueueSize = 128
	defaultSettle  = 300 * time.Millisecond
)

// DropEvent is a regular file that appeared (or finished being written) in
// the watched folder.
type DropEvent struct {
	Path      string
	Size      int64
	Timestamp time.Time
}

// DropFolder watches one directory with fsnotify. A file is reported once
// no further create/write event arrived for it during the settle window,
// so half-copied files are not queued for upload.
type DropFolder struct {
	dir     string
	settle  time.Duration
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool

	out  chan DropEvent
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewDropFolder creates dir if missing and starts watching it. settle <= 0
// uses the default window.
func NewDropFolder(dir string, settle time.Duration) (*DropFolder, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("drop folder: empty path")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(abs); err != nil {
		_ = w.Close()
		return nil, err
	}
	if settle <= 0 {
		settle = defaultSettle
	}
	logger.Infof("Watching drop folder: %s", abs)
	return &DropFolder{
		dir:     abs,
		settle:  settle,
		watcher: w,
		pending: make(map[string]*time.Timer),
		out:     make(chan DropEvent, eventQueueSize),
		stop:    make(chan struct{}),
	}, nil
}

func (d *DropFolder) Dir() string { return d.dir }

// Events starts the watch loop and returns the channel of settled files.
// The channel is closed by Close.
func (d *DropFolder) Events() <-chan DropEvent {
	d.wg.Add(1)
	go d.loop()
	return d.out
}

func (d *DropFolder) loop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			return
		case evt, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.handle(evt)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("Drop folder watcher error: %v", err)
		}
	}
}

func (d *DropFolder) handle(evt fsnotify.Event) {
	path := filepath.Clean(evt.Name)
	if isHidden(path) {
		return
	}
	switch {
	case evt.Op&(fsnotify.Create|fsnotify.Write) != 0:
		d.schedule(path)
	case evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		d.cancel(path)
	}
}

func (d *DropFolder) schedule(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if t, ok := d.pending[path]; ok {
		t.Reset(d.settle)
		return
	}
	d.pending[path] = time.AfterFunc(d.settle, func() { d.fire(path) })
}

func (d *DropFolder) cancel(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.pending[path]; ok {
		t.Stop()
		delete(d.pending, path)
	}
}

func (d *DropFolder) fire(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	delete(d.pending, path)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	evt := DropEvent{Path: path, Size: info.Size(), Timestamp: time.Now()}
	select {
	case d.out <- evt:
	default:
		logger.Errorf("Drop folder backpressure, dropping %s", evt.Path)
	}
}

// Close stops the watcher, cancels pending timers and closes the channel.
func (d *DropFolder) Close() error {
	var closeErr error
	d.once.Do(func() {
		close(d.stop)
		closeErr = d.watcher.Close()
		d.wg.Wait()

		d.mu.Lock()
		d.closed = true
		for p, t := range d.pending {
			t.Stop()
			delete(d.pending, p)
		}
		close(d.out)
		d.mu.Unlock()
	})
	return closeErr
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
