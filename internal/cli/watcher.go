package cli

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/toyz/bindplan/internal/errors"
	"github.com/toyz/bindplan/internal/utils"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to settle
const DefaultDebounce = 200 * time.Millisecond

// ChangeFunc is called with the Go files changed since the last call, sorted
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher re-runs analysis when Go sources change
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onError  func(error)
}

// NewWatcher watches dirs, which are package directories found by the scanner
func NewWatcher(dirs []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapFileSystemError("start watcher for", strings.Join(dirs, ", "), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{watcher: fw, debounce: debounce, onError: func(error) {}}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.WrapFileSystemError("watch", dir, err)
		}
	}
	return w, nil
}

// OnError sets the callback for watcher errors. Errors never stop the watcher.
func (w *Watcher) OnError(fn func(error)) {
	w.onError = fn
}

// Watch blocks until ctx is cancelled, calling onChange once per settled burst of changes.
// It returns the cancellation cause of ctx.
func (w *Watcher) Watch(ctx context.Context, onChange ChangeFunc) error {
	defer w.watcher.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return context.Cause(ctx)

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.track(event) {
				pending[event.Name] = true
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.onError(err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			clear(pending)
			onChange(ctx, changed)
		}
	}
}

// track reports whether event concerns an analysed file. New directories are watched too.
func (w *Watcher) track(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			entry := dirEntry{info}
			if utils.DefaultDirectoryFilter()(event.Name, entry) {
				if err := w.watcher.Add(event.Name); err != nil {
					w.onError(err)
				}
			}
			return false
		}
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}

// dirEntry adapts os.FileInfo to os.DirEntry for the directory filter
type dirEntry struct {
	info os.FileInfo
}

func (d dirEntry) Name() string               { return d.info.Name() }
func (d dirEntry) IsDir() bool                { return d.info.IsDir() }
func (d dirEntry) Type() os.FileMode          { return d.info.Mode().Type() }
func (d dirEntry) Info() (os.FileInfo, error) { return d.info, nil }
