package watcher

import (
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/streamv8/streamv8/internal/config"
)

// Watcher observes the catalog directories for out-of-band changes: files
// edited or dropped in place without going through the document store.
// Such files may fail validation and be skipped by directory listings, so
// surfacing them here keeps the skip behavior observable instead of
// silent.
type Watcher struct {
	cfg      *config.Config
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	debounce map[string]*time.Timer
	external atomic.Int64
	stop     chan struct{}
}

func New(cfg *config.Config) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		cfg:      cfg,
		watcher:  fw,
		debounce: make(map[string]*time.Timer),
		stop:     make(chan struct{}),
	}, nil
}

// Start begins watching the movie and series directories and processing
// events. Directories missing at startup are skipped with a warning; they
// are picked up on the next Refresh.
func (w *Watcher) Start() {
	go w.eventLoop()
	w.Refresh()
	log.Println("[watcher] catalog watcher started")
}

func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
}

// Refresh re-registers the watched directories, creating them if needed.
func (w *Watcher) Refresh() {
	for _, dir := range []string{w.cfg.MoviesDir(), w.cfg.SeriesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("[watcher] cannot prepare %s: %v", dir, err)
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			log.Printf("[watcher] cannot watch %s: %v", dir, err)
		}
	}
}

// ExternalChanges reports how many out-of-band document changes have been
// observed since startup.
func (w *Watcher) ExternalChanges() int64 {
	return w.external.Load()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := event.Name
	// Temp files and lock files are the store's own traffic, not
	// out-of-band edits.
	if strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, ".tmp") {
		return
	}
	if !strings.HasSuffix(name, ".json") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// Debounce: editors and atomic renames fire bursts of events for one
	// logical change.
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounce[name]; ok {
		timer.Stop()
	}
	op := event.Op
	w.debounce[name] = time.AfterFunc(500*time.Millisecond, func() {
		w.external.Add(1)
		log.Printf("[watcher] catalog document changed on disk: %s (%s)", name, op)
		w.mu.Lock()
		delete(w.debounce, name)
		w.mu.Unlock()
	})
}
