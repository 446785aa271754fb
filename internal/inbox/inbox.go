// Package inbox watches a drop directory and hands new proposal files to a
// review callback once they have stopped changing.
package inbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Handler is called once per settled file.
type Handler func(ctx context.Context, path string)

// Inbox watches one directory, non-recursively.
type Inbox struct {
	dir        string
	extensions []string
	handler    Handler
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]*time.Timer
	seen    map[string]fileStamp
	wg      sync.WaitGroup
	done    chan struct{}
	stop    sync.Once
}

// fileStamp identifies a version of a file so rewrites are reviewed again.
type fileStamp struct {
	size    int64
	modTime time.Time
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Inbox) { in.logger = l }
}

// WithDebounce sets how long a file must be quiet before it is handled.
func WithDebounce(d time.Duration) Option {
	return func(in *Inbox) { in.debounce = d }
}

// New creates an inbox over dir. Only files whose extension is in extensions
// are handled; an empty list accepts every file.
func New(dir string, extensions []string, handler Handler, opts ...Option) *Inbox {
	in := &Inbox{
		dir:        filepath.Clean(dir),
		extensions: extensions,
		handler:    handler,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		seen:       make(map[string]fileStamp),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Dir returns the watched directory.
func (in *Inbox) Dir() string {
	return in.dir
}

// Start creates the directory if needed, queues files already present and
// watches for new ones until ctx is cancelled or Stop is called.
func (in *Inbox) Start(ctx context.Context) error {
	if err := os.MkdirAll(in.dir, 0755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(in.dir); err != nil {
		_ = watcher.Close()
		return err
	}

	in.mu.Lock()
	in.watcher = watcher
	in.mu.Unlock()

	in.logger.Info("Watching inbox", zap.String("dir", in.dir), zap.Strings("extensions", in.extensions))

	entries, err := os.ReadDir(in.dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				in.schedule(ctx, filepath.Join(in.dir, e.Name()))
			}
		}
	}

	go in.run(ctx, watcher)
	return nil
}

func (in *Inbox) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			in.Stop()
			return
		case <-in.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			in.handleEvent(ctx, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			in.logger.Warn("Inbox watcher error", zap.Error(err))
		}
	}
}

func (in *Inbox) handleEvent(ctx context.Context, ev fsnotify.Event) {
	in.logger.Debug("Inbox event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		in.schedule(ctx, ev.Name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		in.cancel(ev.Name)
	}
}

// schedule (re)starts the debounce timer for path.
func (in *Inbox) schedule(ctx context.Context, path string) {
	if !in.accepts(path) {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.watcher == nil {
		return
	}
	if t, ok := in.pending[path]; ok {
		t.Stop()
	}
	in.pending[path] = time.AfterFunc(in.debounce, func() {
		in.fire(ctx, path)
	})
}

func (in *Inbox) fire(ctx context.Context, path string) {
	in.mu.Lock()
	delete(in.pending, path)
	if in.watcher == nil {
		in.mu.Unlock()
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		in.mu.Unlock()
		return
	}
	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
	if prev, ok := in.seen[path]; ok && prev == stamp {
		in.mu.Unlock()
		return
	}
	in.seen[path] = stamp
	in.wg.Add(1)
	in.mu.Unlock()

	defer in.wg.Done()
	in.logger.Info("Reviewing inbox file", zap.String("path", path))
	if in.handler != nil {
		in.handler(ctx, path)
	}
}

func (in *Inbox) cancel(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.pending[path]; ok {
		t.Stop()
		delete(in.pending, path)
	}
	delete(in.seen, path)
}

func (in *Inbox) accepts(path string) bool {
	name := filepath.Base(path)
	// Editor lock files and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	return matchExtension(path, in.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// Stop stops watching and waits for running handlers to return.
func (in *Inbox) Stop() {
	in.mu.Lock()
	for path, t := range in.pending {
		t.Stop()
		delete(in.pending, path)
	}
	watcher := in.watcher
	in.watcher = nil
	in.mu.Unlock()

	if watcher != nil {
		_ = watcher.Close()
	}
	in.stop.Do(func() { close(in.done) })
	in.wg.Wait()
}
