package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the config file and reports changes. The running process
// keeps its resolved configuration; the callback lets callers log that a
// restart is needed to pick up the new file.
type Watcher struct {
	projectRoot string
	watcher     *fsnotify.Watcher
	onChange    func(path string)

	// Debouncing: editors fire several events per save.
	pendingMu    sync.Mutex
	pendingAt    time.Time
	pending      bool
	debounceTime time.Duration
}

// WatcherConfig contains watcher configuration.
type WatcherConfig struct {
	ProjectRoot  string
	OnChange     func(path string)
	DebounceTime time.Duration // Default: 500ms
}

// NewWatcher creates a new config file watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounceTime := cfg.DebounceTime
	if debounceTime == 0 {
		debounceTime = 500 * time.Millisecond
	}

	return &Watcher{
		projectRoot:  cfg.ProjectRoot,
		watcher:      watcher,
		onChange:     cfg.OnChange,
		debounceTime: debounceTime,
	}, nil
}

// Watch starts watching the config directory. It blocks until the context
// is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	// Watch the directory, not the file: editors replace files on save
	// and a watch on the old inode would go stale.
	dir := ConfigDir(w.projectRoot)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	slog.Info("watching config for changes", "path", ConfigPath(w.projectRoot))

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if filepath.Base(event.Name) != filepath.Base(ConfigPath(w.projectRoot)) {
		return
	}

	w.pendingMu.Lock()
	w.pending = true
	w.pendingAt = time.Now()
	w.pendingMu.Unlock()

	slog.Debug("config file changed", "op", event.Op.String())
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pendingMu.Lock()
			fire := w.pending && time.Since(w.pendingAt) >= w.debounceTime
			if fire {
				w.pending = false
			}
			w.pendingMu.Unlock()

			if fire && w.onChange != nil {
				w.onChange(ConfigPath(w.projectRoot))
			}
		}
	}
}
