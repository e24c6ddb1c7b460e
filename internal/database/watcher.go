package database

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change reports that a database document was written, created or removed.
type Change struct {
	File string // absolute path
}

// Watcher monitors a database directory for document changes using fsnotify.
// Callers reload the database on each change; the Database itself stays
// immutable.
type Watcher struct {
	Dir     string
	Changes <-chan Change // read-only external channel

	changes chan Change
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a new watcher for the given database directory.
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Dir:     dir,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching the database directory for changes.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: track last event time per file so editors that write in
	// several steps trigger one reload.
	const debounce = 100 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				// Closing down; nobody is reading Changes anymore, so
				// pending entries are dropped rather than sent.
				return
			}

			if !w.isDocument(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				pending[event.Name] = time.Now()
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) < debounce {
					continue
				}
				select {
				case w.changes <- Change{File: file}:
					delete(pending, file)
				default:
					// Consumer is behind; keep the change pending and
					// retry on the next tick so the loop never blocks.
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; a reload will surface real problems.
		}
	}
}

// isDocument reports whether a path is part of the database: the index, a
// suite document, or a tree template.
func (w *Watcher) isDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".xml", ".tmpl":
		return true
	}
	return false
}
