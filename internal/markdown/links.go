package markdown

import "strings"

const (
	// SourceExt marks a markdown source file in paths and link destinations.
	SourceExt = ".md"
	// OutputExt is the extension of compiled pages.
	OutputExt = ".html"
)

// RewriteDestination substitutes every source extension marker in dest with
// the compiled page extension. Fragments and queries are preserved.
func RewriteDestination(dest string) string {
	if !strings.Contains(dest, SourceExt) {
		return dest
	}
	return strings.ReplaceAll(dest, SourceExt, OutputExt)
}
