// Package watch triggers reloads when file sources change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/logging"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/source"
)

// DefaultDebounce is how long the watched files must be quiet before a
// reload runs.
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc is called after changes settle.
type ReloadFunc func(ctx context.Context) error

// target is one watched path: a file, a directory of logs, or a glob.
type target struct {
	path    string
	dir     bool
	pattern bool
}

func (t target) matches(name string) bool {
	switch {
	case t.pattern:
		ok, _ := filepath.Match(t.path, name)
		return ok
	case t.dir:
		return filepath.Dir(name) == t.path && source.IsLogFile(name)
	default:
		return name == t.path
	}
}

// Watcher watches the directories holding file sources and calls a reload
// function once changes stop arriving.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	targets   []target
	dirs      []string
	reload    ReloadFunc
	debounce  time.Duration
	logger    *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logging.Component(logger, "watch")
	}
}

// New creates a watcher for paths, which may be files, directories or
// glob patterns. Files need not exist yet; their directory must.
func New(paths []string, reload ReloadFunc, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		reload:   reload,
		debounce: DefaultDebounce,
		logger:   logging.Component(nil, "watch"),
	}
	for _, opt := range opts {
		opt(w)
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		t, dir, err := resolve(p)
		if err != nil {
			return nil, err
		}
		w.targets = append(w.targets, t)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}

	if len(w.dirs) == 0 {
		return nil, fmt.Errorf("watch: no paths to watch")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	for _, dir := range w.dirs {
		if err := fsWatcher.Add(dir); err != nil {
			_ = fsWatcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.fsWatcher = fsWatcher

	return w, nil
}

// resolve returns the target for p and the directory to subscribe to.
func resolve(p string) (target, string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return target{}, "", fmt.Errorf("watch %s: %w", p, err)
	}

	if strings.ContainsAny(abs, "*?[") {
		return target{path: abs, pattern: true}, filepath.Dir(abs), nil
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return target{path: abs, dir: true}, abs, nil
	}

	return target{path: abs}, filepath.Dir(abs), nil
}

// Dirs returns the watched directories.
func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	w.logger.Info("watching", slog.Any("dirs", w.dirs), slog.Duration("debounce", w.debounce))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// Atomic writes replace the target through a rename, and a removed
	// file must reload into a failed state.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	if !w.watches(event.Name) {
		return
	}

	w.logger.Debug("change", slog.String("path", event.Name), slog.String("op", event.Op.String()))
	w.schedule(ctx)
}

func (w *Watcher) watches(name string) bool {
	name = filepath.Clean(name)
	for _, t := range w.targets {
		if t.matches(name) {
			return true
		}
	}
	return false
}

// schedule restarts the debounce timer. Changes to any watched file
// collapse into one reload, since a reload reads every source.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.reload(ctx); err != nil {
			w.logger.Warn("reload failed", slog.String("error", err.Error()))
		}
	})
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	w.stop()
	return nil
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.fsWatcher.Close()
}
