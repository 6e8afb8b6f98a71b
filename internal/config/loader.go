package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/opencode-ai/toolgate/internal/logging"
)

// Loader caches parsed Settings for a project directory and invalidates the
// cache when any settings file changes on disk. Users hand-edit the files
// mid-session, so a check must never observe stale rules for long; with a
// working watcher a check sees an edit as soon as the write event lands, and
// without one every check falls back to a fresh Load.
type Loader struct {
	directory string

	mu      sync.RWMutex
	cached  *Settings
	dirty   bool
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewLoader creates a loader for the given project directory. The fsnotify
// watcher is best-effort: if the .claude directories cannot be watched the
// loader reloads on every Current call instead.
func NewLoader(directory string) *Loader {
	l := &Loader{
		directory: directory,
		dirty:     true,
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Debug().Err(err).Msg("settings watcher unavailable, reloading per check")
		return l
	}

	watching := false
	for _, path := range settingsFiles(directory) {
		// Watch the containing directory: editors replace files on save,
		// which drops a watch on the file itself.
		if err := w.Add(filepath.Dir(path)); err == nil {
			watching = true
		}
	}
	if !watching {
		w.Close()
		return l
	}

	l.watcher = w
	l.done = make(chan struct{})
	go l.watch(w)
	return l
}

// Current returns the effective Settings, reloading from disk if a change
// was observed (or on every call when no watcher is active). The returned
// value is a snapshot: concurrent checks may see the old or the new settings
// but never a partial parse.
func (l *Loader) Current() *Settings {
	l.mu.RLock()
	if l.watcher != nil && !l.dirty && l.cached != nil {
		s := l.cached
		l.mu.RUnlock()
		return s
	}
	l.mu.RUnlock()

	s := Load(l.directory)

	l.mu.Lock()
	l.cached = s
	l.dirty = false
	l.mu.Unlock()
	return s
}

// Invalidate forces the next Current call to reload from disk.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.dirty = true
	l.mu.Unlock()
}

// Close stops the watcher. Idempotent.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher != nil {
		l.watcher.Close()
		l.watcher = nil
		close(l.done)
	}
}

func (l *Loader) watch(w *fsnotify.Watcher) {
	for {
		select {
		case <-l.done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Ext(ev.Name) == ".json" {
				logging.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("settings file changed")
				l.Invalidate()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logging.Warn().Err(err).Msg("settings watcher error")
		}
	}
}
