package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeEvent represents a change of a watched data file.
type ChangeEvent struct {
	Path       string
	ChangeType string // "create", "write", "remove", "rename"
}

// FSWatcher reports changes of page data files. Directories are watched
// rather than files because analysis runs replace their output by rename,
// which drops a file-level watch.
type FSWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	filter   *PatternFilter
	onChange func(ChangeEvent)
}

// NewFSWatcher creates a watcher that fires onChange once per burst of
// events, after debounce has passed without further events.
func NewFSWatcher(debounce time.Duration, onChange func(ChangeEvent)) (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	return &FSWatcher{
		watcher:  w,
		debounce: debounce,
		filter:   NewPatternFilter(nil, DefaultExcludes),
		onChange: onChange,
	}, nil
}

// WatchFile watches a single file. Other files in its directory are ignored.
func (w *FSWatcher) WatchFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.filter.Include = append(w.filter.Include, filepath.Base(abs))
	return w.WatchDir(filepath.Dir(abs))
}

// WatchDir watches every non-temporary file directly inside dir.
func (w *FSWatcher) WatchDir(dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *FSWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	events := make(chan ChangeEvent, 1)
	debouncer := NewDebouncer(w.debounce, func(e ChangeEvent) {
		select {
		case events <- e:
		default:
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-events:
			if w.onChange != nil {
				w.onChange(e)
			}
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			changeType := opToChangeType(event.Op)
			if changeType == "" || !w.filter.Matches(event.Name) {
				continue
			}
			debouncer.Trigger(ChangeEvent{Path: event.Name, ChangeType: changeType})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func opToChangeType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
