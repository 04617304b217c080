package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// WatchOptions tune Watch.
type WatchOptions struct {
	Options
	Debounce time.Duration
}

// ResultFunc receives the outcome of every run made by Watch.
type ResultFunc func(*Result, error)

// Watch runs the pipeline once, then again every time the workbook changes,
// until ctx is cancelled. Failed runs are reported to onResult and do not stop
// the watch. Runs never overlap.
func Watch(ctx context.Context, cfg Config, opts WatchOptions, onResult ResultFunc) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.logger()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors replace the file on save, so watch the directory.
	dir := filepath.Dir(cfg.Workbook)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Info("watching workbook", "path", cfg.Workbook)

	changes := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var debounce <-chan time.Time
		for {
			select {
			case <-gctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !isWorkbookEvent(event, cfg.Workbook) {
					continue
				}
				logger.Debug("workbook changed", "op", event.Op.String())
				debounce = time.After(opts.Debounce)
			case <-debounce:
				debounce = nil
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watcher error", "error", err)
			}
		}
	})

	g.Go(func() error {
		onResult(Run(gctx, cfg, opts.Options))
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-changes:
				onResult(Run(gctx, cfg, opts.Options))
			}
		}
	})

	return g.Wait()
}

// isWorkbookEvent reports whether event is a write to the workbook itself.
func isWorkbookEvent(event fsnotify.Event, workbook string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(workbook)
}
