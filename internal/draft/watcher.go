package draft

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/logger"
)

const watchDebounce = 500 * time.Millisecond

// Watcher reports drafts written to the cache file by someone else, such as
// a second editor process or a hand edit.
type Watcher struct {
	cache    *FileCache
	onChange func(*domain.Draft)
	isOwn    func(savedAt time.Time) bool
	log      *logger.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	timer   *time.Timer
}

// NewWatcher creates a Watcher. isOwn filters out drafts this process wrote;
// it may be nil.
func NewWatcher(cache *FileCache, onChange func(*domain.Draft), isOwn func(time.Time) bool, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.Nop()
	}
	if isOwn == nil {
		isOwn = func(time.Time) bool { return false }
	}
	return &Watcher{
		cache:    cache,
		onChange: onChange,
		isOwn:    isOwn,
		log:      log.With("component", "draft-watcher"),
	}
}

// Start watches the cache file's directory until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	target, err := filepath.Abs(w.cache.Path())
	if err != nil {
		return fmt.Errorf("resolve draft path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.watcher = fw
	w.cancel = cancel
	w.mu.Unlock()

	go w.loop(watchCtx, fw, target)
	w.log.Debug("watching draft", "path", target)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, target string) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != target {
				continue
			}
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(watchDebounce, func() { w.reload(ctx) })
			w.mu.Unlock()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	d, err := w.cache.Load()
	if err != nil {
		w.log.Warn("reload draft failed", "error", err)
		return
	}
	if d == nil || w.isOwn(d.SavedAt) {
		return
	}
	w.log.Info("draft changed on disk", "blocks", len(d.Blocks))
	w.onChange(d)
}

// Stop ends the watch.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
}
