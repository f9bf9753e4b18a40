package logs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher nudges the dashboard to refresh as soon as the CLI appends
// to a log file, instead of waiting for the next poll tick. Change
// bursts are debounced; the notification carries no payload since
// every refresh is a full re-read anyway.
type Watcher struct {
	fs       *fsnotify.Watcher
	changed  chan struct{}
	stop     chan struct{}
	debounce time.Duration
}

// NewWatcher watches the given roots and their project subdirectories.
// Roots that do not exist yet are skipped; the poll tick still covers
// them.
func NewWatcher(roots []string, debounce time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fs,
		changed:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
		debounce: debounce,
	}
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		_ = fs.Add(root)
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				_ = fs.Add(filepath.Join(root, e.Name()))
			}
		}
	}
	go w.loop()
	return w, nil
}

// Changed delivers at most one pending notification.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.fs.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			// New project directories appear while running.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.fs.Add(ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			}
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Transient watch errors are ignored; polling still runs.
		case <-fire:
			timer = nil
			fire = nil
			select {
			case w.changed <- struct{}{}:
			default:
			}
		}
	}
}
