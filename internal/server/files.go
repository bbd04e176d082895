package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// files serves regular files below root. Directories resolve to their
// index.html; with tryHTML an extension-less path also tries <path>.html.
func files(root string, tryHTML bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		target, ok := resolve(root, r.URL.Path, tryHTML)
		if !ok {
			http.NotFound(w, r)
			return
		}
		f, err := os.Open(target)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer func() { _ = f.Close() }()
		st, err := f.Stat()
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, st.Name(), st.ModTime(), f)
	})
}

// resolve maps a URL path to a regular file below root. The path is cleaned
// as an absolute URL path first, so it cannot climb out of root.
func resolve(root, urlPath string, tryHTML bool) (string, bool) {
	clean := path.Clean("/" + urlPath)
	base := filepath.Join(root, filepath.FromSlash(clean))
	if !within(root, base) {
		return "", false
	}

	candidates := []string{base}
	if tryHTML && clean != "/" && path.Ext(clean) == "" {
		candidates = append(candidates, base+".html")
	}
	candidates = append(candidates, filepath.Join(base, "index.html"))

	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && st.Mode().IsRegular() {
			return c, true
		}
	}
	return "", false
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
