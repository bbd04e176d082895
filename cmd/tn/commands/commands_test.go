package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tn/internal/config"
	terrors "git.home.luguber.info/inful/tn/internal/errors"
)

type project struct {
	dir    string
	global *Global
	root   *CLI
	out    *bytes.Buffer
}

func newProject(t *testing.T) project {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return project{
		dir:    dir,
		global: &Global{DefaultStorageDir: filepath.Join(dir, "store"), Stdout: out},
		root:   &CLI{Config: filepath.Join(dir, config.DefaultFile)},
		out:    out,
	}
}

func (p project) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(p.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestInitThenBuild(t *testing.T) {
	p := newProject(t)

	require.NoError(t, (&InitCmd{}).Run(p.global, p.root))
	assert.Contains(t, p.out.String(), "initialized successfully")
	assert.FileExists(t, p.root.Config)

	p.write(t, "notes/index.nav", "- [A](a.md)\n")
	p.write(t, "notes/a.md", "# A\n")
	p.write(t, "notes/deep/b.md", "# B\n")

	p.out.Reset()
	require.NoError(t, (&BuildCmd{}).Run(p.global, p.root))
	assert.Contains(t, p.out.String(), "Compiled 2 pages")

	out := filepath.Join(p.dir, "store", "cache", "notes")
	assert.FileExists(t, filepath.Join(out, "a.html"))
	assert.FileExists(t, filepath.Join(out, "deep", "b.html"))
}

func TestInit_RefusesToOverwrite(t *testing.T) {
	p := newProject(t)
	require.NoError(t, (&InitCmd{}).Run(p.global, p.root))

	err := (&InitCmd{}).Run(p.global, p.root)
	require.Error(t, err)
	require.NoError(t, (&InitCmd{Force: true}).Run(p.global, p.root))

	require.NoError(t, (&InitCmd{Output: filepath.Join(p.dir, "other")}).Run(p.global, p.root))
	assert.FileExists(t, filepath.Join(p.dir, "other", config.DefaultFile))
}

func TestStorageDirFlagOverridesDefault(t *testing.T) {
	p := newProject(t)
	p.write(t, config.DefaultFile, "name: site\nsrc: notes\n")
	p.write(t, "notes/index.nav", "nav\n")
	p.write(t, "notes/a.md", "# A\n")
	p.root.StorageDir = filepath.Join(p.dir, "elsewhere")

	require.NoError(t, (&BuildCmd{}).Run(p.global, p.root))
	assert.FileExists(t, filepath.Join(p.dir, "elsewhere", "cache", "site", "a.html"))
	assert.NoDirExists(t, filepath.Join(p.dir, "store"))
}

func TestCrawl_PrintsSortedMarkdownPaths(t *testing.T) {
	p := newProject(t)
	p.write(t, "notes/b.md", "b")
	p.write(t, "notes/a/c.md", "c")
	p.write(t, "notes/x.txt", "x")

	require.NoError(t, (&CrawlCmd{Src: filepath.Join(p.dir, "notes")}).Run(p.global, p.root))
	lines := strings.Split(strings.TrimSpace(p.out.String()), "\n")
	assert.Equal(t, []string{
		filepath.Join(p.dir, "notes", "a", "c.md"),
		filepath.Join(p.dir, "notes", "b.md"),
	}, lines)
}

func TestBuild_MissingConfig(t *testing.T) {
	p := newProject(t)
	err := (&BuildCmd{}).Run(p.global, p.root)
	require.Error(t, err)
	assert.True(t, terrors.IsCategory(err, terrors.CategoryConfig))
	assert.Equal(t, 7, terrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestHistory_ReadsJournalAfterBuild(t *testing.T) {
	p := newProject(t)
	p.write(t, config.DefaultFile, "name: site\nsrc: notes\njournal:\n  enabled: true\n")
	p.write(t, "notes/index.nav", "nav\n")
	p.write(t, "notes/a.md", "# A\n")
	p.write(t, "notes/b.md", "# B\n")
	require.NoError(t, (&BuildCmd{}).Run(p.global, p.root))

	p.out.Reset()
	require.NoError(t, (&HistoryCmd{Source: filepath.Join(p.dir, "notes", "a.md")}).Run(p.global, p.root))
	lines := strings.Split(strings.TrimSpace(p.out.String()), "\n")
	require.Len(t, lines, 1)
	fields := strings.Split(lines[0], "\t")
	assert.Equal(t, "page_generated", fields[1])
	assert.Equal(t, filepath.Join(p.dir, "notes", "a.md"), fields[3])
	batchID := fields[2]

	p.out.Reset()
	require.NoError(t, (&HistoryCmd{Batch: batchID}).Run(p.global, p.root))
	batch := p.out.String()
	assert.Contains(t, batch, "batch_started")
	assert.Contains(t, batch, "batch_completed")
	assert.Contains(t, batch, "rendered=2")

	p.out.Reset()
	require.NoError(t, (&HistoryCmd{Since: time.Hour}).Run(p.global, p.root))
	assert.Len(t, strings.Split(strings.TrimSpace(p.out.String()), "\n"), 4)

	p.out.Reset()
	require.NoError(t, (&HistoryCmd{Source: filepath.Join(p.dir, "notes", "gone.md")}).Run(p.global, p.root))
	assert.Equal(t, "No journal entries\n", p.out.String())
}

func TestHistory_WithoutJournalIsAValidationError(t *testing.T) {
	p := newProject(t)
	p.write(t, config.DefaultFile, "name: site\nsrc: notes\n")
	p.write(t, "notes/index.nav", "nav\n")

	err := (&HistoryCmd{Since: time.Hour}).Run(p.global, p.root)
	require.Error(t, err)
	assert.True(t, terrors.IsCategory(err, terrors.CategoryValidation))
}
