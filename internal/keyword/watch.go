package keyword

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/StevieDC/dd-voice/pkg/log"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads a keyword file whenever it changes on disk. The parent
// directory is watched instead of the file so that editors which save by
// rename are still picked up.
type Watcher struct {
	path     string
	debounce time.Duration
	fw       *fsnotify.Watcher

	mu      sync.Mutex
	stopped bool
}

func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		debounce: defaultDebounce,
		fw:       fw,
	}, nil
}

// Run blocks until ctx is done, calling onLoad with each reloaded set.
// A reload that fails (missing file, empty list) is passed as err and the
// caller keeps its previous set.
func (w *Watcher) Run(ctx context.Context, onLoad func(set *Set, err error)) error {
	defer w.Stop()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// editors write several times per save
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			log.Info("Keyword file %s changed, reloading", w.path)
			onLoad(LoadFile(w.path))
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("Keyword watcher error: %v", err)
		}
	}
}

// Stop releases the underlying watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	return w.fw.Close()
}
