package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Goldmark resolves reference, collapsed and shortcut links into the same
// *ast.Link node as inline links. The wrapper below records which links were
// written with an inline `(dest)` so the rewrite can leave the others alone.

var inlineLinksKey = parser.NewContextKey()

type closingInlineParser interface {
	parser.InlineParser
	parser.CloseBlocker
}

type inlineLinkParser struct {
	closingInlineParser
}

func newInlineLinkParser(delegate closingInlineParser) parser.InlineParser {
	return &inlineLinkParser{closingInlineParser: delegate}
}

func isLinkParser(p parser.InlineParser) bool {
	return bytes.IndexByte(p.Trigger(), ']') >= 0
}

func (p *inlineLinkParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 2 || line[0] != ']' || line[1] != '(' {
		return p.closingInlineParser.Parse(parent, block, pc)
	}

	startLine, startSeg := block.Position()
	node := p.closingInlineParser.Parse(parent, block, pc)
	link, ok := node.(*ast.Link)
	if !ok {
		return node
	}

	// A shortcut reference followed by literal text starting with "(" only
	// consumes the closing bracket.
	endLine, endSeg := block.Position()
	if endLine == startLine && endSeg.Start-startSeg.Start <= 1 {
		return node
	}
	markInline(pc, link)
	return node
}

func markInline(pc parser.Context, link *ast.Link) {
	set, _ := pc.Get(inlineLinksKey).(map[*ast.Link]struct{})
	if set == nil {
		set = make(map[*ast.Link]struct{})
		pc.Set(inlineLinksKey, set)
	}
	set[link] = struct{}{}
}

func inlineLinks(pc parser.Context) map[*ast.Link]struct{} {
	set, _ := pc.Get(inlineLinksKey).(map[*ast.Link]struct{})
	return set
}

// linkRewriter points inline links at compiled pages before serialization.
type linkRewriter struct{}

func (linkRewriter) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	inline := inlineLinks(pc)
	if len(inline) == 0 {
		return
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			if _, isInline := inline[link]; isInline {
				link.Destination = []byte(RewriteDestination(string(link.Destination)))
			}
		}
		return ast.WalkContinue, nil
	})
}
