// Package watcher keeps the redundancy index in step with edits made to
// the memory bank outside the server.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/HendryAvila/memory-bank/internal/logging"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Index is the part of the redundancy detector the watcher drives.
type Index interface {
	UpdateIndex(file, content string)
	Remove(file string)
	RemoveTree(dir string)
}

// Watcher watches a memory-bank directory tree.
type Watcher struct {
	root    string
	index   Index
	logger  *logging.Logger
	watcher *fsnotify.Watcher

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool

	mu   sync.Mutex
	dirs map[string]bool
}

// New creates a watcher for root. Start must be called to begin watching.
func New(root string, index Index, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	return &Watcher{
		root:    abs,
		index:   index,
		logger:  logger.Named("watcher"),
		watcher: fw,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		dirs:    make(map[string]bool),
	}, nil
}

// Start adds root and its non-hidden subdirectories to the watch list and
// processes events in a background goroutine until Stop is called or ctx
// is done. The root must exist.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(ctx, w.root, false); err != nil {
		return err
	}
	w.started.Store(true)
	go w.processEvents(ctx)
	w.logger.Info(ctx, "watching memory bank", zap.String("root", w.root))
	return nil
}

// Stop ends watching and waits for the event loop to exit. It is safe to
// call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.watcher.Close() // best-effort cleanup
	})
	if w.started.Load() {
		<-w.done
	}
}

// processEvents applies filesystem events to the index.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			_ = w.watcher.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if hidden(w.root, path) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if w.forgetDir(path) {
			w.index.RemoveTree(path)
			w.logger.Debug(ctx, "directory removed", zap.String("path", path))
			return
		}
		if isMarkdown(path) {
			w.index.Remove(path)
			w.logger.Debug(ctx, "document removed", zap.String("path", path))
		}

	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			// Files written before the watch was added produce no events.
			if err := w.addTree(ctx, path, true); err != nil {
				w.logger.Warn(ctx, "watching new directory failed", zap.String("path", path), zap.Error(err))
			}
			return
		}
		w.indexFile(ctx, path)
	}
}

// addTree watches dir and its non-hidden subdirectories. With index set,
// markdown files found along the way are indexed.
func (w *Watcher) addTree(ctx context.Context, dir string, index bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			w.logger.Debug(ctx, "skipping unreadable path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if p != w.root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			if err := w.watcher.Add(p); err != nil {
				return fmt.Errorf("watching %s: %w", p, err)
			}
			w.mu.Lock()
			w.dirs[p] = true
			w.mu.Unlock()
			return nil
		}
		if index {
			w.indexFile(ctx, p)
		}
		return nil
	})
}

// forgetDir reports whether path was a watched directory and stops
// tracking it and everything below it.
func (w *Watcher) forgetDir(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirs[path] {
		return false
	}
	prefix := path + string(filepath.Separator)
	for d := range w.dirs {
		if d == path || strings.HasPrefix(d, prefix) {
			delete(w.dirs, d)
		}
	}
	return true
}

func (w *Watcher) indexFile(ctx context.Context, path string) {
	if !isMarkdown(path) {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Debug(ctx, "skipping unreadable file", zap.String("path", path), zap.Error(err))
		return
	}
	w.index.UpdateIndex(path, string(data))
	w.logger.Debug(ctx, "document indexed", zap.String("path", path))
}

func isMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

// hidden reports whether any element of path below root starts with a dot.
func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
