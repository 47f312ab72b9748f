package routing

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces editor write bursts into one reload.
const watchDebounce = 250 * time.Millisecond

// Watch reloads the table whenever the routing file changes. Blocks until
// the context is cancelled; run it in its own goroutine.
func (t *Table) Watch(ctx context.Context, path string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(path); err != nil {
		slog.Warn("routing file not watchable yet", "path", path, "error", err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if err := t.Reload(path); err != nil {
				slog.Warn("routing reload failed", "path", path, "error", err)
				continue
			}
			slog.Info("routing table reloaded", "path", path, "projects", len(t.Names()))
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("routing watcher error", "error", err)
		}
	}
}
