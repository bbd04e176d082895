package markdown

import "testing"

func TestRewriteDestination(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"note.md", "note.html"},
		{"note.md#sec", "note.html#sec"},
		{"../dir/note.md?x=1", "../dir/note.html?x=1"},
		{"https://example.com/page", "https://example.com/page"},
		{"image.png", "image.png"},
		{"", ""},
	}
	for _, c := range cases {
		if got := RewriteDestination(c.in); got != c.want {
			t.Errorf("RewriteDestination(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
