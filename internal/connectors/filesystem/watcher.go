package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/llmli/internal/core/domain"
	"github.com/custodia-labs/llmli/internal/logger"
	"github.com/custodia-labs/llmli/internal/safety"
)

// DefaultDebounce is how long a path must be quiet before its change is applied.
const DefaultDebounce = 500 * time.Millisecond

// FileUpdater applies single-file changes to a silo.
type FileUpdater interface {
	UpdateSingleFile(ctx context.Context, path, silo string, allowCloud bool) (domain.FileStatus, string, error)
	RemoveSingleFile(ctx context.Context, path, silo string) (domain.FileStatus, string, error)
}

// ChangeType is the kind of change observed for a path.
type ChangeType int

const (
	// ChangeUpserted means the file was created or written.
	ChangeUpserted ChangeType = iota + 1

	// ChangeRemoved means the file was removed or renamed away.
	ChangeRemoved
)

// String returns the change name used in logs.
func (c ChangeType) String() string {
	switch c {
	case ChangeUpserted:
		return "upsert"
	case ChangeRemoved:
		return "remove"
	default:
		return "unknown"
	}
}

// Change is one debounced filesystem change.
type Change struct {
	Path string
	Type ChangeType
}

// Applied reports the outcome of one change.
type Applied struct {
	Change Change
	Status domain.FileStatus
	Err    error
}

// WatchOptions holds watcher tunables.
type WatchOptions struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// AllowCloud permits re-ingesting files under cloud-sync folders.
	AllowCloud bool

	// OnApplied is called after every change is applied. Optional.
	OnApplied func(Applied)
}

// Watcher keeps one silo current by re-ingesting files as they change.
type Watcher struct {
	root    string
	silo    string
	updater FileUpdater
	opts    WatchOptions

	mu      sync.Mutex
	pending map[string]ChangeType
	fsw     *fsnotify.Watcher
}

// NewWatcher creates a watcher for the silo rooted at root.
func NewWatcher(root, silo string, updater FileUpdater, opts WatchOptions) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		root:    filepath.Clean(root),
		silo:    silo,
		updater: updater,
		opts:    opts,
		pending: make(map[string]ChangeType),
	}
}

// Run watches until ctx is cancelled. Pending changes are flushed before return.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()
	w.fsw = fsw

	if _, err := w.addTree(w.root); err != nil {
		return err
	}
	logger.Info("Watching %s (silo %s)", w.root, w.silo)

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush(context.WithoutCancel(ctx))
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			changes := w.handleEvent(event)
			if len(changes) == 0 {
				continue
			}
			w.enqueue(changes)
			timer.Reset(w.opts.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// handleEvent maps one fsnotify event to zero or more changes.
// Chmod-only events and hidden or skipped paths produce nothing.
func (w *Watcher) handleEvent(event fsnotify.Event) []Change {
	if w.ignored(event.Name) {
		return nil
	}

	switch {
	// a removed directory arrives as one change; the updater expands it
	// from the manifest
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return []Change{{Path: event.Name, Type: ChangeRemoved}}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if !event.Has(fsnotify.Create) {
				return nil
			}
			files, err := w.addTree(event.Name)
			if err != nil {
				logger.Warn("watch %s: %v", event.Name, err)
			}
			changes := make([]Change, 0, len(files))
			for _, f := range files {
				changes = append(changes, Change{Path: f, Type: ChangeUpserted})
			}
			return changes
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return []Change{{Path: event.Name, Type: ChangeUpserted}}
	}
	return nil
}

// addTree registers dir and its subdirectories and returns the regular
// files found beneath it.
func (w *Watcher) addTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && w.ignored(path) {
				return filepath.SkipDir
			}
			if w.fsw != nil {
				if err := w.fsw.Add(path); err != nil {
					return fmt.Errorf("watch %s: %w", path, err)
				}
			}
			return nil
		}
		if d.Type().IsRegular() && !w.ignored(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

// ignored reports whether path sits under a hidden or skipped directory
// relative to the watch root.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if isHidden(part) || safety.SkipDir(part) {
			return true
		}
	}
	return false
}

// isHidden reports whether a path component is a dotfile. "." and ".." are not.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// enqueue merges changes into the pending set. The latest change per path wins.
func (w *Watcher) enqueue(changes []Change) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range changes {
		w.pending[c.Path] = c.Type
	}
}

// drain takes the pending changes in path order.
func (w *Watcher) drain() []Change {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Change, 0, len(w.pending))
	for path, typ := range w.pending {
		out = append(out, Change{Path: path, Type: typ})
	}
	clear(w.pending)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// flush applies every pending change.
func (w *Watcher) flush(ctx context.Context) {
	for _, c := range w.drain() {
		w.apply(ctx, c)
	}
}

// apply sends one change to the updater. A file that vanished before an
// upsert could run is treated as a removal.
func (w *Watcher) apply(ctx context.Context, c Change) {
	var (
		status domain.FileStatus
		err    error
	)
	switch c.Type {
	case ChangeUpserted:
		status, _, err = w.updater.UpdateSingleFile(ctx, c.Path, w.silo, w.opts.AllowCloud)
		if errors.Is(err, domain.ErrNotFound) {
			status, _, err = w.updater.RemoveSingleFile(ctx, c.Path, w.silo)
		}
	case ChangeRemoved:
		status, _, err = w.updater.RemoveSingleFile(ctx, c.Path, w.silo)
	}

	switch {
	case errors.Is(err, domain.ErrUnsafePath):
		logger.Debug("watch skip %s: %v", c.Path, err)
	case err != nil:
		logger.Warn("watch %s %s: %v", c.Type, c.Path, err)
	default:
		logger.Debug("watch %s %s: %s", c.Type, c.Path, status)
	}
	if w.opts.OnApplied != nil {
		w.opts.OnApplied(Applied{Change: c, Status: status, Err: err})
	}
}
