// Package markdown renders markdown notes into HTML fragments.
//
// Rendering is a pure function of the input bytes: the same text always yields
// the same HTML. Inline links to markdown sources are rewritten to the compiled
// page extension so intra-site links resolve to generated pages.
package markdown

import (
	"bytes"
	"fmt"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/tn/internal/frontmatter"
)

// Renderer converts markdown documents to HTML. It holds no per-document state
// and can be reused.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a CommonMark renderer with inline link rewriting.
// Raw HTML in notes is passed through.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithParser(newParser()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func newParser() parser.Parser {
	inlines := make([]util.PrioritizedValue, 0, len(parser.DefaultInlineParsers()))
	for _, v := range parser.DefaultInlineParsers() {
		if ip, ok := v.Value.(closingInlineParser); ok && isLinkParser(ip) {
			v = util.Prioritized(newInlineLinkParser(ip), v.Priority)
		}
		inlines = append(inlines, v)
	}

	return parser.NewParser(
		parser.WithBlockParsers(parser.DefaultBlockParsers()...),
		parser.WithInlineParsers(inlines...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
		parser.WithASTTransformers(util.Prioritized(linkRewriter{}, 100)),
	)
}

// Render converts markdown source into an HTML fragment. Leading YAML front
// matter is not part of the rendered body, so a note opening with
// "---\nkey: v\n---" renders without the thematic break and setext heading
// plain CommonMark would produce for those lines.
func (r *Renderer) Render(src []byte) (string, error) {
	_, body := frontmatter.Strip(src)

	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return buf.String(), nil
}

// RenderFile reads a markdown file and renders it.
func (r *Renderer) RenderFile(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return r.Render(src)
}
