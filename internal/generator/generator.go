// Package generator turns markdown sources into compiled pages and keeps them
// in sync as change batches arrive.
//
// A Generator owns the content cache and the rendered navigation fragment. It
// is not safe for concurrent use; the daemon worker is its single owner.
package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/tn/internal/cache"
	"git.home.luguber.info/inful/tn/internal/crawler"
	terrors "git.home.luguber.info/inful/tn/internal/errors"
	"git.home.luguber.info/inful/tn/internal/frontmatter"
	"git.home.luguber.info/inful/tn/internal/logfields"
	"git.home.luguber.info/inful/tn/internal/markdown"
	"git.home.luguber.info/inful/tn/internal/metrics"
	"git.home.luguber.info/inful/tn/internal/page"
)

// ErrOutsideRoot is returned by OutputPath for inputs not below the source root.
var ErrOutsideRoot = errors.New("path is outside the source root")

// errRenderSkipped marks a recovered per-file failure that was already logged.
var errRenderSkipped = errors.New("render skipped")

type Generator struct {
	root     string
	project  string
	navPath  string
	nav      string
	refresh  bool
	cache    *cache.Cache
	renderer *markdown.Renderer

	continueAfterNav bool
	recorder         metrics.Recorder
	observers        []Observer
	log              *slog.Logger
	now              func() time.Time
}

// New prepares a Generator: it creates the output root and renders the
// navigation file once. A navigation file that cannot be read or rendered is
// fatal.
func New(opts Options, fns ...Option) (*Generator, error) {
	if opts.SourceRoot == "" {
		return nil, terrors.ValidationFailed("src", "source root is required")
	}
	root, err := crawler.Canonicalize(opts.SourceRoot)
	if err != nil {
		return nil, terrors.CrawlFailed(opts.SourceRoot, err)
	}
	c, err := cache.New(opts.OutputRoot)
	if err != nil {
		return nil, terrors.OutputRootError(opts.OutputRoot, err)
	}

	g := &Generator{
		root:     root,
		project:  opts.Project,
		navPath:  filepath.Join(root, NavigationFile),
		refresh:  opts.Refresh,
		cache:    c,
		renderer: markdown.NewRenderer(),
		recorder: metrics.NoopRecorder{},
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, fn := range fns {
		fn(g)
	}

	nav, err := g.renderer.RenderFile(g.navPath)
	if err != nil {
		return nil, terrors.NavigationUnavailable(g.navPath, err)
	}
	g.nav = nav
	return g, nil
}

func (g *Generator) Cache() *cache.Cache    { return g.cache }
func (g *Generator) Navigation() string     { return g.nav }
func (g *Generator) SourceRoot() string     { return g.root }
func (g *Generator) NavigationPath() string { return g.navPath }
func (g *Generator) OutputRoot() string     { return g.cache.Path() }

// Generate processes one batch of candidate paths in order. See GenerateBatch.
func (g *Generator) Generate(paths []string) (Result, error) {
	return g.GenerateBatch("", paths)
}

// GenerateBatch processes candidates in the given order, tagging events with
// batchID.
//
// The navigation file triggers a full regeneration of every cached page,
// after which the remaining candidates are dropped unless
// WithContinueAfterNavigation is set. Other markdown candidates are rendered
// when their content changed since the last successful generation.
// Per-file failures never abort the batch; write failures are collected into
// the returned error.
func (g *Generator) GenerateBatch(batchID string, paths []string) (Result, error) {
	start := g.now()
	var res Result
	var errs []error

	for _, raw := range paths {
		path := filepath.Clean(raw)

		if path == g.navPath {
			if !g.reloadNavigation(batchID) {
				res.Skipped++
				continue
			}
			res.FullRebuild = true
			g.recorder.IncFullRebuild()
			if err := g.regenerate(batchID, &res); err != nil {
				errs = append(errs, err)
			}
			if !g.continueAfterNav {
				break
			}
			continue
		}

		if !crawler.IsMarkdown(path) {
			g.skip(&res)
			continue
		}

		modified, err := g.cache.Modified(path)
		if err != nil {
			g.recoverModified(batchID, path, err, &res)
			continue
		}
		if !modified {
			g.skip(&res)
			continue
		}

		if err := g.build(batchID, path, &res); err != nil {
			errs = append(errs, err)
		}
	}

	res.Duration = g.now().Sub(start)
	g.recorder.ObserveBatchDuration(res.Duration)
	g.recorder.SetTrackedFiles(g.cache.Len())
	return res, errors.Join(errs...)
}

// OutputPath mirrors input below the output root with the page extension:
// <root>/a/b/c.md maps to <out>/a/b/c.html.
func (g *Generator) OutputPath(input string) (string, error) {
	rel, err := filepath.Rel(g.root, filepath.Clean(input))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, input)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, input)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + markdown.OutputExt
	return filepath.Join(g.cache.Path(), rel), nil
}

func (g *Generator) skip(res *Result) {
	res.Skipped++
	g.recorder.IncPageResult(metrics.ResultSkipped)
}

func (g *Generator) recoverModified(batchID, path string, err error, res *Result) {
	if errors.Is(err, cache.ErrNotFound) {
		g.log.Debug("Source no longer exists; skipping", logfields.Path(path), logfields.BatchID(batchID))
		g.skip(res)
		return
	}
	g.log.Warn("Could not read source; skipping", logfields.Path(path), logfields.BatchID(batchID), logfields.Error(err))
	res.Failed++
	g.recorder.IncPageResult(metrics.ResultFailed)
	g.emit(Event{Type: EventPageFailed, BatchID: batchID, Source: path, Error: err.Error()})
}

// build renders path and records it in the cache. Recovered failures are
// counted but not returned.
func (g *Generator) build(batchID, path string, res *Result) error {
	var digest string
	output, err := g.OutputPath(path)
	if err == nil {
		digest, err = g.generateFile(batchID, path, output)
	}
	if err != nil {
		res.Failed++
		g.recorder.IncPageResult(metrics.ResultFailed)
		g.emit(Event{Type: EventPageFailed, BatchID: batchID, Source: path, Output: output, Error: err.Error()})
		if errors.Is(err, errRenderSkipped) {
			return nil
		}
		g.log.Error("Failed to generate page", logfields.Path(path), logfields.BatchID(batchID), logfields.Error(err))
		return err
	}

	res.Rendered++
	g.recorder.IncPageResult(metrics.ResultRendered)
	g.cache.Record(path, digest)
	return nil
}

// generateFile renders input into a complete page at output and returns the
// digest of the source bytes it rendered.
func (g *Generator) generateFile(batchID, input, output string) (string, error) {
	start := g.now()
	src, err := os.ReadFile(input)
	if err != nil {
		g.log.Warn("Could not read source", logfields.Path(input), logfields.Error(err))
		return "", fmt.Errorf("%w: %w", errRenderSkipped, err)
	}

	body, err := g.renderer.Render(src)
	if err != nil {
		g.log.Warn("Could not parse document", logfields.Path(input), logfields.Error(terrors.RenderFailed(input, err)))
		return "", fmt.Errorf("%w: %w", errRenderSkipped, err)
	}

	doc, err := page.Assemble(page.Data{
		Title:      g.project,
		Navigation: g.nav,
		Content:    body,
		Refresh:    g.refresh,
	})
	if err != nil {
		return "", terrors.RenderFailed(input, err)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", terrors.WriteFailed(output, err)
	}
	if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
		return "", terrors.WriteFailed(output, err)
	}

	digest := cache.Digest(src)
	g.recorder.ObserveRenderDuration(g.now().Sub(start))
	g.log.Debug("Generated page", logfields.Path(input), logfields.Output(output))
	g.emit(Event{
		Type:        EventPageGenerated,
		BatchID:     batchID,
		Source:      input,
		Output:      output,
		Hash:        digest,
		Fingerprint: frontmatter.Fingerprint(src),
	})
	return digest, nil
}

// reloadNavigation re-renders the navigation file, keeping the previous
// fragment when that fails.
func (g *Generator) reloadNavigation(batchID string) bool {
	nav, err := g.renderer.RenderFile(g.navPath)
	if err != nil {
		g.log.Error("Navigation could not be re-rendered; keeping previous version",
			logfields.Path(g.navPath), logfields.BatchID(batchID), logfields.Error(err))
		return false
	}
	g.nav = nav
	g.emit(Event{Type: EventNavigationChanged, BatchID: batchID, Source: g.navPath})
	return true
}

// regenerate re-renders every cached page unconditionally and refreshes its
// cache entry.
func (g *Generator) regenerate(batchID string, res *Result) error {
	files := g.cache.Files()
	g.log.Info("Regenerating all pages", logfields.Count(len(files)), logfields.BatchID(batchID))
	var errs []error
	for _, path := range files {
		if !crawler.IsMarkdown(path) {
			continue
		}
		if err := g.build(batchID, path, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *Generator) emit(e Event) {
	if len(g.observers) == 0 {
		return
	}
	if e.Time.IsZero() {
		e.Time = g.now()
	}
	for _, o := range g.observers {
		o.Observe(e)
	}
}
