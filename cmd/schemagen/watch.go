package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce groups the bursts of events editors emit on save.
const debounce = 200 * time.Millisecond

// watchSchemas calls run after every change of a schema file until ctx is
// done. Runs are sequential and a failed run does not stop the watch.
func (a *app) watchSchemas(ctx context.Context, run func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Editors replace files on save, so the directories are watched.
	files := make(map[string]bool, len(a.cfg.Schemas))
	dirs := make(map[string]bool)
	for _, s := range a.cfg.Schemas {
		abs, err := filepath.Abs(s)
		if err != nil {
			return err
		}
		files[abs] = true
		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}
	a.logger.Info("watching schema files", zap.Strings("files", a.cfg.Schemas))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(ev.Name)] || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)) {
				continue
			}
			a.logger.Debug("schema changed", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			pending = time.After(debounce)
		case <-pending:
			pending = nil
			if err := run(); err != nil {
				a.logger.Error("generation failed", zap.Error(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
