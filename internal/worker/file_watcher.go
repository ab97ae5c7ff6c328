package worker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"ccpp/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher invalidates a source shortly after its file changes on disk.
// Directories are watched rather than files so that editors that replace a
// file through a rename are still seen.
type FileWatcher struct {
	watcher     *fsnotify.Watcher
	cache       Invalidator
	sources     map[string]string // cleaned absolute path -> source
	dirs        []string
	debounceDur time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewFileWatcher watches the given sources, resolved against baseDir.
func NewFileWatcher(baseDir string, sources []string, cache Invalidator, debounce time.Duration, logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	fw := &FileWatcher{
		watcher:     w,
		cache:       cache,
		sources:     map[string]string{},
		debounceDur: debounce,
		logger:      logger,
		pending:     map[string]time.Time{},
	}
	seen := map[string]bool{}
	for _, src := range sources {
		p := src
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("resolve %s: %w", src, err)
		}
		fw.sources[abs] = src
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			fw.dirs = append(fw.dirs, dir)
		}
	}
	return fw, nil
}

// Run watches until ctx is done. It closes the underlying watcher on return.
func (fw *FileWatcher) Run(ctx context.Context) error {
	defer fw.watcher.Close()
	for _, dir := range fw.dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		fw.logger.InfoContext(ctx, "Watching data directory", "dir", dir)
	}

	tick := fw.debounceDur / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fw.logger.InfoContext(ctx, "File watcher stopped")
			return nil
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.ErrorContext(ctx, "File watcher error", "error", err)
		case now := <-ticker.C:
			fw.flush(ctx, now)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	src, ok := fw.sources[abs]
	if !ok {
		return
	}
	fw.mu.Lock()
	fw.pending[src] = time.Now()
	fw.mu.Unlock()
}

// flush invalidates sources whose last event is older than the debounce
// window.
func (fw *FileWatcher) flush(ctx context.Context, now time.Time) {
	fw.mu.Lock()
	var ready []string
	for src, at := range fw.pending {
		if now.Sub(at) >= fw.debounceDur {
			ready = append(ready, src)
			delete(fw.pending, src)
		}
	}
	fw.mu.Unlock()

	for _, src := range ready {
		metrics.DataInvalidationsTotal.WithLabelValues("watcher").Inc()
		n := fw.cache.Invalidate(src)
		fw.logger.InfoContext(ctx, "Data file changed, cache invalidated", "source", src, "entries", n)
	}
}
