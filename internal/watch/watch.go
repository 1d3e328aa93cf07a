// Package watch reloads a document when its file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of events from editors that write a
// file in several steps.
const DefaultDebounce = 150 * time.Millisecond

// File watches a single file. The parent directory is watched so that
// atomic replace-by-rename saves are seen too.
type File struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context, path string) error
	logger   *log.Logger
}

// NewFile returns a watcher calling onChange after path is written,
// created or renamed into place.
func NewFile(path string, onChange func(ctx context.Context, path string) error, logger *log.Logger) *File {
	if logger == nil {
		logger = log.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &File{path: abs, debounce: DefaultDebounce, onChange: onChange, logger: logger}
}

// Run blocks until ctx is done. Errors from onChange are logged and do not
// stop the watcher.
func (f *File) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}
	f.logger.Info("watching", "path", f.path)

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

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !f.relevant(ev) {
				continue
			}
			f.logger.Debug("file event", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(f.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			if err := f.onChange(ctx, f.path); err != nil {
				f.logger.Warn("reload failed", "path", f.path, "err", err)
				continue
			}
			f.logger.Info("reloaded", "path", f.path)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("watch error", "err", err)
		}
	}
}

func (f *File) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != f.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
