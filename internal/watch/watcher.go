// Package watch rebuilds the manifest whenever the input tree changes.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tendant/avatar-manifest/internal/utils"
)

// RebuildFunc runs one build
type RebuildFunc func(ctx context.Context) error

// Watcher monitors the input root and its group directories
type Watcher struct {
	root     string
	debounce time.Duration
	rebuild  RebuildFunc
	log      *utils.Logger
	watcher  *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher that calls rebuild after changes settle
func NewWatcher(root string, debounce time.Duration, rebuild RebuildFunc, log *utils.Logger) (*Watcher, error) {
	if log == nil {
		log = utils.NewNopLogger()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		root:     filepath.Clean(root),
		debounce: debounce,
		rebuild:  rebuild,
		log:      log.WithComponent("watch"),
		watcher:  fsWatcher,
	}, nil
}

// Run watches until ctx is cancelled. The root must exist.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addTree(); err != nil {
		return err
	}

	triggers := make(chan struct{}, 1)
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, triggers)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("Watcher error")

		case <-triggers:
			if err := w.rebuild(ctx); err != nil {
				w.log.Error().Err(err).Msg("Rebuild failed")
			}
		}
	}
}

// addTree watches the root and every immediate subdirectory
func (w *Watcher) addTree() error {
	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	w.log.Info().Str("dir", w.root).Msg("Watching folder")

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", w.root, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addGroup(filepath.Join(w.root, e.Name()))
		}
	}
	return nil
}

func (w *Watcher) addGroup(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.log.Warn().Err(err).Str("dir", dir).Msg("Failed to watch group")
		return
	}
	w.log.Debug().Str("dir", dir).Msg("Watching group")
}

func (w *Watcher) handleEvent(event fsnotify.Event, triggers chan<- struct{}) {
	name := filepath.Base(event.Name)
	if name == "" || name[0] == '.' {
		return
	}

	// New group directories directly under the root need their own watch
	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == w.root {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addGroup(event.Name)
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Change detected")
	w.schedule(triggers)
}

// schedule coalesces bursts of events into one rebuild
func (w *Watcher) schedule(triggers chan<- struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case triggers <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
