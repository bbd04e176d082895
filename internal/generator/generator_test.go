package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tn/internal/crawler"
	terrors "git.home.luguber.info/inful/tn/internal/errors"
)

type fixture struct {
	src string
	out string
}

func newFixture(t *testing.T, files map[string]string) fixture {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	f := fixture{src: filepath.Join(base, "src"), out: filepath.Join(base, "out")}
	if _, ok := files[NavigationFile]; !ok {
		files[NavigationFile] = "- [Home](index.md)\n"
	}
	for rel, content := range files {
		f.write(t, rel, content)
	}
	return f
}

func (f fixture) path(rel string) string { return filepath.Join(f.src, filepath.FromSlash(rel)) }

func (f fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := f.path(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func (f fixture) output(rel string) string {
	return filepath.Join(f.out, filepath.FromSlash(rel))
}

func (f fixture) generator(t *testing.T, fns ...Option) *Generator {
	t.Helper()
	g, err := New(Options{SourceRoot: f.src, Project: "notes", OutputRoot: f.out}, fns...)
	require.NoError(t, err)
	return g
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestNew_RendersNavigationOnce(t *testing.T) {
	f := newFixture(t, map[string]string{NavigationFile: "- [Intro](intro.md)\n"})
	g := f.generator(t)

	assert.Contains(t, g.Navigation(), `<a href="intro.html">Intro</a>`)
	assert.Equal(t, f.path(NavigationFile), g.NavigationPath())
	assert.Equal(t, f.src, g.SourceRoot())
	assert.Equal(t, 0, g.Cache().Len())
	assert.DirExists(t, f.out)
}

func TestNew_MissingNavigationIsFatal(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "# A\n"})
	require.NoError(t, os.Remove(f.path(NavigationFile)))

	_, err := New(Options{SourceRoot: f.src, Project: "notes", OutputRoot: f.out})
	require.Error(t, err)
	assert.True(t, terrors.IsCategory(err, terrors.CategoryRender))
	assert.True(t, terrors.IsFatal(err))
}

func TestOutputPath_MirrorsSourceTree(t *testing.T) {
	f := newFixture(t, map[string]string{})
	g := f.generator(t)

	out, err := g.OutputPath(f.path("a/b/c.md"))
	require.NoError(t, err)
	assert.Equal(t, f.output("a/b/c.html"), out)

	_, err = g.OutputPath(filepath.Join(filepath.Dir(f.src), "elsewhere.md"))
	require.ErrorIs(t, err, ErrOutsideRoot)
	_, err = g.OutputPath(f.src)
	require.ErrorIs(t, err, ErrOutsideRoot)
}

func TestGenerate_WritesNestedPage(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a/b/c.md": "# Deep\n\nSee [other](../other.md#top).\n",
	})
	g := f.generator(t)

	res, err := g.Generate([]string{f.path("a/b/c.md")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rendered)
	assert.True(t, res.Changed())

	html := readOutput(t, f.output("a/b/c.html"))
	assert.Contains(t, html, "<title>notes</title>")
	assert.Contains(t, html, `<a href="index.html">Home</a>`)
	assert.Contains(t, html, "<h1>Deep</h1>")
	assert.Contains(t, html, `href="../other.html#top"`)
	assert.NotContains(t, html, "livereload.js")

	_, tracked := g.Cache().Hash(f.path("a/b/c.md"))
	assert.True(t, tracked)
}

func TestGenerate_RefreshPagesLoadLiveReload(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "# A\n"})
	g, err := New(Options{SourceRoot: f.src, Project: "notes", OutputRoot: f.out, Refresh: true})
	require.NoError(t, err)

	_, err = g.Generate([]string{f.path("a.md")})
	require.NoError(t, err)
	assert.Contains(t, readOutput(t, f.output("a.html")), "/livereload.js")
}

func TestGenerate_SkipsUnchangedAndNonMarkdown(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "# A\n", "img.png": "png"})
	g := f.generator(t)

	res, err := g.Generate([]string{f.path("a.md")})
	require.NoError(t, err)
	require.Equal(t, 1, res.Rendered)

	require.NoError(t, os.Remove(f.output("a.html")))
	res, err = g.Generate([]string{f.path("a.md"), f.path("img.png")})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rendered)
	assert.Equal(t, 2, res.Skipped)
	assert.NoFileExists(t, f.output("a.html"), "unchanged source must not be rewritten")
	assert.NoFileExists(t, f.output("img.html"))

	f.write(t, "a.md", "# A changed\n")
	res, err = g.Generate([]string{f.path("a.md")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rendered)
	assert.Contains(t, readOutput(t, f.output("a.html")), "A changed")
}

func TestGenerate_NavigationShortCircuitsBatch(t *testing.T) {
	f := newFixture(t, map[string]string{"A.md": "# A\n", "B.md": "# B\n"})
	g := f.generator(t)
	f.write(t, NavigationFile, "- [Changed](A.md)\n")

	res, err := g.Generate([]string{f.path("A.md"), f.path(NavigationFile), f.path("B.md")})
	require.NoError(t, err)

	assert.True(t, res.FullRebuild)
	assert.Contains(t, g.Navigation(), "Changed")
	assert.Contains(t, readOutput(t, f.output("A.html")), "Changed")
	assert.NoFileExists(t, f.output("B.html"), "candidates after the navigation file are not evaluated")
	_, tracked := g.Cache().Hash(f.path("B.md"))
	assert.False(t, tracked)
}

func TestGenerate_ContinueAfterNavigation(t *testing.T) {
	f := newFixture(t, map[string]string{"A.md": "# A\n", "B.md": "# B\n"})
	g := f.generator(t, WithContinueAfterNavigation(true))
	f.write(t, NavigationFile, "- [Changed](A.md)\n")

	res, err := g.Generate([]string{f.path("A.md"), f.path(NavigationFile), f.path("B.md")})
	require.NoError(t, err)

	assert.True(t, res.FullRebuild)
	assert.FileExists(t, f.output("B.html"))
	assert.Contains(t, readOutput(t, f.output("B.html")), "Changed")
	assert.Equal(t, 2, g.Cache().Len())
}

func TestGenerate_NavigationChangeRebuildsEveryCachedPage(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "# A\n", "sub/b.md": "# B\n"})
	g := f.generator(t)

	files, err := crawler.Crawl(f.src)
	require.NoError(t, err)
	res, err := g.Generate(crawler.Paths(files))
	require.NoError(t, err)
	require.Equal(t, 2, res.Rendered)

	f.write(t, NavigationFile, "- [Renamed](a.md)\n")
	res, err = g.Generate([]string{f.path(NavigationFile)})
	require.NoError(t, err)
	assert.True(t, res.FullRebuild)
	assert.Equal(t, 2, res.Rendered)
	for _, out := range []string{"a.html", "sub/b.html"} {
		assert.Contains(t, readOutput(t, f.output(out)), "Renamed", out)
	}
}

func TestGenerate_BrokenNavigationKeepsPreviousFragment(t *testing.T) {
	f := newFixture(t, map[string]string{"B.md": "# B\n"})
	g := f.generator(t)
	before := g.Navigation()
	require.NoError(t, os.Remove(f.path(NavigationFile)))

	res, err := g.Generate([]string{f.path(NavigationFile), f.path("B.md")})
	require.NoError(t, err)
	assert.False(t, res.FullRebuild)
	assert.Equal(t, before, g.Navigation())
	assert.FileExists(t, f.output("B.html"))
}

func TestGenerate_UnreadableSourceIsIsolated(t *testing.T) {
	f := newFixture(t, map[string]string{"good.md": "# Good\n"})
	// A directory named like a note cannot be read as a file.
	require.NoError(t, os.MkdirAll(f.path("broken.md"), 0o755))
	g := f.generator(t)

	res, err := g.Generate([]string{f.path("broken.md"), f.path("good.md")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Rendered)
	assert.FileExists(t, f.output("good.html"))

	_, tracked := g.Cache().Hash(f.path("broken.md"))
	assert.False(t, tracked, "failed sources stay stale")
}

func TestGenerate_DeletedSourceIsSkipped(t *testing.T) {
	f := newFixture(t, map[string]string{"gone.md": "# Gone\n"})
	g := f.generator(t)
	_, err := g.Generate([]string{f.path("gone.md")})
	require.NoError(t, err)
	require.NoError(t, os.Remove(f.path("gone.md")))

	res, err := g.Generate([]string{f.path("gone.md")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Failed)
}

func TestGenerate_WriteFailureIsReturnedAndBatchContinues(t *testing.T) {
	f := newFixture(t, map[string]string{"sub/a.md": "# A\n", "b.md": "# B\n"})
	g := f.generator(t)
	// A file where the output directory should be.
	require.NoError(t, os.WriteFile(f.output("sub"), []byte("x"), 0o600))

	res, err := g.Generate([]string{f.path("sub/a.md"), f.path("b.md")})
	require.Error(t, err)
	assert.True(t, terrors.IsCategory(err, terrors.CategoryFileSystem))
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Rendered)
	assert.FileExists(t, f.output("b.html"))
}

func TestGenerate_IsDeterministic(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "# A\n\n[x](y.md) and [r][ref]\n\n[ref]: z.md\n"})
	g := f.generator(t)

	_, err := g.Generate([]string{f.path("a.md")})
	require.NoError(t, err)
	first := readOutput(t, f.output("a.html"))

	f.write(t, NavigationFile, "- [Home](index.md)\n")
	_, err = g.Generate([]string{f.path(NavigationFile)})
	require.NoError(t, err)
	assert.Equal(t, first, readOutput(t, f.output("a.html")))
	assert.Contains(t, first, `href="y.html"`)
	assert.Contains(t, first, `href="z.md"`)
}

func TestGenerate_EmitsEvents(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "---\ntitle: A\n---\n# A\n"})
	var events []Event
	g := f.generator(t, WithObserver(ObserverFunc(func(e Event) { events = append(events, e) })))

	_, err := g.GenerateBatch("batch-1", []string{f.path("a.md"), f.path(NavigationFile)})
	require.NoError(t, err)

	var types []EventType
	for _, e := range events {
		types = append(types, e.Type)
		assert.Equal(t, "batch-1", e.BatchID)
		assert.False(t, e.Time.IsZero())
	}
	assert.Equal(t, []EventType{EventPageGenerated, EventNavigationChanged, EventPageGenerated}, types)

	first := events[0]
	assert.Equal(t, f.path("a.md"), first.Source)
	assert.Equal(t, f.output("a.html"), first.Output)
	assert.Len(t, first.Hash, 64)
	assert.NotEmpty(t, first.Fingerprint)
}

func TestGenerate_CacheRecordsRenderedBytes(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "# Old\n"})
	edited := false
	g := f.generator(t, WithObserver(ObserverFunc(func(e Event) {
		if e.Type == EventPageGenerated && !edited {
			edited = true
			f.write(t, "a.md", "# New\n")
		}
	})))

	res, err := g.Generate([]string{f.path("a.md")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rendered)
	assert.Contains(t, readOutput(t, f.output("a.html")), "Old")

	modified, err := g.Cache().Modified(f.path("a.md"))
	require.NoError(t, err)
	assert.True(t, modified, "edit made during generation must leave the page stale")

	res, err = g.Generate([]string{f.path("a.md")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rendered)
	assert.Contains(t, readOutput(t, f.output("a.html")), "New")
}
