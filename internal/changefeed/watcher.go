// Package changefeed watches a source tree and delivers debounced batches of
// changed paths.
package changefeed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/tn/internal/crawler"
	"git.home.luguber.info/inful/tn/internal/logfields"
)

const (
	DefaultDebounce = 200 * time.Millisecond
	// DefaultMaxDelay bounds how long a continuous stream of events can
	// postpone delivery.
	DefaultMaxDelay = 2 * time.Second
)

type Options struct {
	Debounce time.Duration
	MaxDelay time.Duration
}

// Watcher turns filesystem notifications below a root into ordered batches.
type Watcher struct {
	root     string
	fs       *fsnotify.Watcher
	debounce time.Duration
	maxDelay time.Duration
}

// New watches every directory below root, following symlinked directories
// the same way the crawler does.
func New(root string, opts Options) (*Watcher, error) {
	canonical, err := crawler.Canonicalize(root)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		root:     canonical,
		fs:       fw,
		debounce: opts.Debounce,
		maxDelay: opts.MaxDelay,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.maxDelay < w.debounce {
		w.maxDelay = max(DefaultMaxDelay, w.debounce)
	}
	if _, err := w.addDirs(canonical); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the canonical watched root.
func (w *Watcher) Root() string { return w.root }

// Run delivers batches until ctx is cancelled or the underlying watcher is
// closed. deliver is called from Run's goroutine; while it blocks, further
// events wait in the notification buffer.
func (w *Watcher) Run(ctx context.Context, deliver func(paths []string)) error {
	var (
		pending Coalescer
		timer   = time.NewTimer(time.Hour)
		first   time.Time
	)
	timer.Stop()
	defer timer.Stop()

	flush := func() {
		if pending.Len() == 0 {
			return
		}
		batch := pending.Drain()
		first = time.Time{}
		slog.Debug("Change batch ready", logfields.Count(len(batch)))
		deliver(batch)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				flush()
				return nil
			}
			paths := w.handle(ev)
			if len(paths) == 0 {
				continue
			}
			for _, p := range paths {
				pending.Add(p)
			}
			now := time.Now()
			if first.IsZero() {
				first = now
			}
			if now.Sub(first) >= w.maxDelay {
				flush()
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				flush()
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-timer.C:
			flush()
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// handle maps one notification to the candidate paths it produces.
func (w *Watcher) handle(ev fsnotify.Event) []string {
	if ShouldIgnore(ev.Name) || ev.Op == fsnotify.Chmod {
		return nil
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))

	path := canonicalEventPath(ev.Name)
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			// Files created before the watch was added would otherwise be missed.
			files, err := w.addDirs(path)
			if err != nil {
				slog.Warn("Could not watch new directory", logfields.Path(path), logfields.Error(err))
			}
			return files
		}
	}
	return []string{path}
}

// addDirs watches dir and every directory below it and returns the markdown
// files already present.
func (w *Watcher) addDirs(dir string) ([]string, error) {
	tree, err := crawler.CrawlTree(dir)
	if err != nil {
		return nil, err
	}
	var walk func(d *crawler.CrawledDir)
	walk = func(d *crawler.CrawledDir) {
		if err := w.fs.Add(d.Path); err != nil {
			slog.Warn("watch add failed", logfields.Path(d.Path), logfields.Error(err))
		}
		for _, e := range d.Entries {
			if e.Dir != nil {
				walk(e.Dir)
			}
		}
	}
	walk(tree)
	return crawler.Paths(crawler.Flatten(tree)), nil
}

// canonicalEventPath resolves symlinks in name. Removed files cannot be
// resolved, so their parent directory is resolved instead.
func canonicalEventPath(name string) string {
	if p, err := crawler.Canonicalize(name); err == nil {
		return p
	}
	if dir, err := crawler.Canonicalize(filepath.Dir(name)); err == nil {
		return filepath.Join(dir, filepath.Base(name))
	}
	if abs, err := filepath.Abs(name); err == nil {
		return abs
	}
	return filepath.Clean(name)
}

// ShouldIgnore reports whether a path is editor or OS noise.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)

	// Hidden files, including .#lock files.
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
