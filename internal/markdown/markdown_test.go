package markdown

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// hrefs returns the href of every anchor in an HTML fragment, in document order.
func hrefs(t *testing.T, fragment string) []string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(fragment))
	require.NoError(t, err)

	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" {
					out = append(out, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func render(t *testing.T, src string) string {
	t.Helper()
	out, err := NewRenderer().Render([]byte(src))
	require.NoError(t, err)
	return out
}

func TestRender_InlineLinkRewritten(t *testing.T) {
	assert.Equal(t, []string{"note.html"}, hrefs(t, render(t, "[text](note.md)\n")))
	assert.Equal(t, []string{"note.html#sec"}, hrefs(t, render(t, "[text](note.md#sec)\n")))
	assert.Equal(t, []string{"sub/deep.html"}, hrefs(t, render(t, "See [*deep* note](sub/deep.md \"Title\").\n")))
}

func TestRender_ReferenceStyleLinksUntouched(t *testing.T) {
	cases := map[string]string{
		"full":      "[text][ref]\n\n[ref]: note.md\n",
		"collapsed": "[ref][]\n\n[ref]: note.md\n",
		"shortcut":  "[ref]\n\n[ref]: note.md\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, []string{"note.md"}, hrefs(t, render(t, src)))
		})
	}
}

func TestRender_ShortcutFollowedByParenthesisIsNotInline(t *testing.T) {
	out := render(t, "[ref](not a destination\n\n[ref]: note.md\n")
	assert.Equal(t, []string{"note.md"}, hrefs(t, out))
}

func TestRender_MixedLinks(t *testing.T) {
	out := render(t, "[a](a.md) and [b][r] and [c](https://example.com/c)\n\n[r]: b.md\n")
	assert.Equal(t, []string{"a.html", "b.md", "https://example.com/c"}, hrefs(t, out))
}

func TestRender_OtherNodesPassThrough(t *testing.T) {
	out := render(t, "# Title\n\n*em* `code.md` ![img](pic.md)\n\n- item\n")
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<em>em</em>")
	assert.Contains(t, out, "<code>code.md</code>")
	assert.Contains(t, out, `src="pic.md"`)
	assert.Contains(t, out, "<li>item</li>")
	assert.Empty(t, hrefs(t, out))
}

func TestRender_Deterministic(t *testing.T) {
	src := "# Notes\n\n[one](one.md) [two][2]\n\n[2]: two.md\n"
	first := render(t, src)
	second := render(t, src)
	assert.Equal(t, first, second)
}

func TestRender_StripsFrontMatter(t *testing.T) {
	out := render(t, "---\ntitle: Hidden\n---\n# Visible\n")
	assert.NotContains(t, out, "Hidden")
	assert.NotContains(t, out, "<hr")
	assert.Contains(t, out, "<h1>Visible</h1>")
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("[b](b.md)\n"), 0o600))

	out, err := NewRenderer().RenderFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.html"}, hrefs(t, out))

	_, err = NewRenderer().RenderFile(filepath.Join(dir, "missing.md"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
