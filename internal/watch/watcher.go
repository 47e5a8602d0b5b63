// Package watch rebuilds the site when its inputs change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// ErrNoPaths is returned when nothing could be watched.
var ErrNoPaths = errors.New("watch: no paths to watch")

// RebuildFunc runs one rebuild. Errors are logged and do not stop the watcher.
type RebuildFunc func(ctx context.Context) error

// Config lists what to watch. Directories are watched recursively; files are
// watched through their parent directory so editor renames are seen.
type Config struct {
	Paths    []string
	Debounce time.Duration
}

// Watcher debounces filesystem events into serialised rebuilds. At most one
// rebuild is queued while another runs.
type Watcher struct {
	fsw      *fsnotify.Watcher
	rebuild  RebuildFunc
	logger   interfaces.Logger
	debounce time.Duration
	roots    []string
	files    map[string]struct{}
	requests chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// New registers cfg.Paths with fsnotify. Missing paths are skipped; if none
// remain, New fails with ErrNoPaths.
func New(cfg Config, rebuild RebuildFunc, logger interfaces.Logger) (*Watcher, error) {
	if rebuild == nil {
		return nil, errors.New("watch: rebuild func is required")
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: fsnotify: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		rebuild:  rebuild,
		logger:   logger,
		debounce: debounce,
		files:    map[string]struct{}{},
		requests: make(chan struct{}, 1),
	}

	for _, target := range cfg.Paths {
		if strings.TrimSpace(target) == "" {
			continue
		}
		if err := w.add(target); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("watch.path.missing", "path", target)
				continue
			}
			_ = fsw.Close()
			return nil, err
		}
	}
	if len(w.roots) == 0 && len(w.files) == 0 {
		_ = fsw.Close()
		return nil, ErrNoPaths
	}
	return w, nil
}

func (w *Watcher) add(target string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("watch: resolve %s: %w", target, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if err := w.fsw.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch: add %s: %w", target, err)
		}
		w.files[abs] = struct{}{}
		return nil
	}
	w.roots = append(w.roots, abs)
	return w.addDirsRecursive(abs)
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("watch.add.failed", "dir", path, "error", err)
		}
		return nil
	})
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go w.worker(runCtx, done)
	defer func() {
		w.stopTimer()
		cancel()
		<-done
		_ = w.fsw.Close()
	}()

	w.logger.Info("watch.start", "roots", len(w.roots), "files", len(w.files))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch.error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !w.relevant(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	w.logger.Debug("watch.change", "path", ev.Name, "op", ev.Op.String())
	w.trigger()
}

func (w *Watcher) relevant(name string) bool {
	if shouldIgnore(name) {
		return false
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if _, ok := w.files[abs]; ok {
		return true
	}
	for _, root := range w.roots {
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// trigger restarts the debounce timer; when it fires a rebuild is queued
// unless one is already waiting.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.requests <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) worker(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.requests:
			started := time.Now()
			if err := w.rebuild(ctx); err != nil {
				w.logger.Warn("watch.rebuild.failed", "error", err)
				continue
			}
			w.logger.Info("watch.rebuild.complete", "duration", time.Since(started))
		}
	}
}

func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
