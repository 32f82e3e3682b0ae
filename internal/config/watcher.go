// Watcher mirrors Genesis's pkg/config/watcher.go: an fsnotify-backed
// debounced reload signal over one or more files.
package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch returns a channel that receives a signal (debounced 500ms,
// coalescing bursts of Write/Create events) whenever any of files changes.
// The channel and the underlying watcher are cleaned up when ctx is done.
func Watch(ctx context.Context, files ...string) <-chan struct{} {
	reload := make(chan struct{}, 1)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("config watcher: create failed", "error", err)
		close(reload)
		return reload
	}

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			slog.Error("config watcher: resolve path failed", "file", f, "error", err)
			continue
		}
		if err := watcher.Add(abs); err != nil {
			slog.Warn("config watcher: watch failed", "file", abs, "error", err)
		}
	}

	go func() {
		defer watcher.Close()
		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("config watcher: error", "error", err)
			}
		}
	}()

	return reload
}
