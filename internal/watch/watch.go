// Package watch triggers automatic checkpoints when project files
// change, coalescing bursts of filesystem events behind a debounce
// timer.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required before a checkpoint is
// taken.
const DefaultDebounce = 500 * time.Millisecond

// TrackFunc captures a checkpoint and returns its hash.
type TrackFunc func() (string, error)

// Watcher observes a project directory tree and checkpoints after each
// burst of changes. Best effort throughout: watch and track errors are
// logged, never fatal.
type Watcher struct {
	projectDir string
	debounce   time.Duration
	track      TrackFunc
	fw         *fsnotify.Watcher
}

// New builds a Watcher over projectDir. Directories named .git are
// never watched.
func New(projectDir string, debounce time.Duration, track TrackFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{
		projectDir: projectDir,
		debounce:   debounce,
		track:      track,
		fw:         fw,
	}
	if err := w.addTree(projectDir); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if skipPath(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				// New directories need watching too; ignore failure on
				// files and races with deletion.
				_ = w.fw.Add(event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		case <-fire:
			timer = nil
			fire = nil
			if hash, err := w.track(); err != nil {
				log.Printf("watch: checkpoint: %v", err)
			} else if hash != "" {
				log.Printf("watch: checkpoint %s", hash)
			}
		}
	}
}

// addTree registers every directory under root.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skipPath(path) {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			log.Printf("watch: add %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", root, err)
	}
	return nil
}

// skipPath filters git internals out of the watch set.
func skipPath(path string) bool {
	base := filepath.Base(path)
	if base == ".git" {
		return true
	}
	return strings.Contains(path, string(filepath.Separator)+".git"+string(filepath.Separator))
}
