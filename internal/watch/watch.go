// Package watch rebuilds the documentation whenever its source tree
// changes. The operator consents to the destructive rebuild loop once, by
// starting watch mode; individual rebuilds are not re-confirmed.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	rkerrors "github.com/mflab/relkit/internal/errors"
	"github.com/mflab/relkit/internal/logfields"
)

// RebuildFunc performs one rebuild pass.
type RebuildFunc func(ctx context.Context) error

// Watcher drives debounced rebuilds from filesystem events, with an
// optional fixed-interval full rebuild schedule.
type Watcher struct {
	source   string
	debounce time.Duration
	schedule time.Duration
	rebuild  RebuildFunc
}

// New creates a watcher over the docs source tree.
func New(source string, debounce, schedule time.Duration, rebuild RebuildFunc) *Watcher {
	return &Watcher{source: source, debounce: debounce, schedule: schedule, rebuild: rebuild}
}

// Run watches until the context is canceled. The first rebuild happens
// immediately so the output tree exists before any edit.
func (w *Watcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.source)
	if err != nil {
		return rkerrors.WrapError(err, rkerrors.CategoryFileSystem, "failed to resolve docs source")
	}
	if _, err := os.Stat(abs); err != nil {
		return rkerrors.WrapError(err, rkerrors.CategoryFileSystem, "docs source not found").
			WithContext("path", abs)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return rkerrors.WrapError(err, rkerrors.CategoryInternal, "failed to create file watcher")
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := addRecursive(watcher, abs); err != nil {
		return err
	}

	trigger := make(chan struct{}, 1)
	scheduler, err := w.startSchedule(trigger)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				slog.Warn("Failed to stop rebuild scheduler", logfields.Error(err))
			}
		}()
	}

	debouncer := NewDebouncer(w.debounce)
	defer debouncer.Stop()

	w.runRebuild(ctx)
	slog.Info("Watching for changes", logfields.Path(abs), slog.Duration("debounce", w.debounce))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			// New directories must be watched before files land in them.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addRecursive(watcher, ev.Name)
				}
			}
			slog.Debug("Source changed", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			debouncer.Trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))

		case <-debouncer.C:
			w.runRebuild(ctx)

		case <-trigger:
			slog.Info("Scheduled rebuild")
			w.runRebuild(ctx)
		}
	}
}

// startSchedule arms the optional fixed-interval rebuild. Returns nil
// scheduler when no schedule is configured.
func (w *Watcher) startSchedule(trigger chan<- struct{}) (gocron.Scheduler, error) {
	if w.schedule <= 0 {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, rkerrors.WrapError(err, rkerrors.CategoryInternal, "failed to create scheduler")
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(w.schedule),
		gocron.NewTask(func() {
			select {
			case trigger <- struct{}{}:
			default: // a rebuild is already pending
			}
		}),
		gocron.WithName("scheduled-rebuild"),
	)
	if err != nil {
		return nil, rkerrors.WrapError(err, rkerrors.CategoryInternal, "failed to schedule rebuild job")
	}
	scheduler.Start()
	return scheduler, nil
}

// runRebuild executes one pass; failures are reported and the loop keeps
// watching so the operator can fix the source and save again.
func (w *Watcher) runRebuild(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.rebuild(ctx); err != nil {
		slog.Error("Rebuild failed", logfields.Error(err))
	}
}

// relevant filters out chmod-only noise.
func relevant(ev fsnotify.Event) bool {
	return ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
}

// addRecursive watches root and every directory below it.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return rkerrors.WrapError(err, rkerrors.CategoryInternal, "failed to watch directory").
				WithContext("path", path)
		}
		return nil
	})
}
