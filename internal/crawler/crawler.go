// Package crawler discovers markdown sources below a root directory.
package crawler

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	terrors "git.home.luguber.info/inful/tn/internal/errors"
	"git.home.luguber.info/inful/tn/internal/logfields"
)

// MarkdownExt is the extension of source documents.
const MarkdownExt = ".md"

// CrawledFile is a canonical absolute path to a markdown document.
type CrawledFile struct {
	Path string
}

// CrawledEntry is either a file or a subdirectory of a CrawledDir.
type CrawledEntry struct {
	File *CrawledFile
	Dir  *CrawledDir
}

// CrawledDir is one directory level of the crawl tree.
type CrawledDir struct {
	Path    string
	Entries []CrawledEntry
}

// IsMarkdown reports whether path names a markdown source.
func IsMarkdown(path string) bool {
	return filepath.Ext(path) == MarkdownExt
}

// Canonicalize resolves path to an absolute, symlink-free form.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCanonicalize, path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCanonicalize, path, err)
	}
	return resolved, nil
}

// Crawl returns every markdown file under root, at any depth, in directory
// enumeration order. Any I/O failure aborts the crawl; there is no partial
// result.
func Crawl(root string) ([]CrawledFile, error) {
	tree, err := CrawlTree(root)
	if err != nil {
		return nil, err
	}
	files := Flatten(tree)
	slog.Debug("Crawl complete", logfields.Root(tree.Path), logfields.Count(len(files)))
	return files, nil
}

// CrawlTree builds the intermediate directory tree for root. Symlinks are
// followed; each canonical directory is entered at most once so link cycles
// terminate. Links resolving outside root are skipped, so every returned path
// lies below the canonical root.
func CrawlTree(root string) (*CrawledDir, error) {
	canonical, err := Canonicalize(root)
	if err != nil {
		return nil, terrors.CrawlFailed(root, err)
	}
	st, err := os.Stat(canonical)
	if err != nil {
		return nil, terrors.CrawlFailed(root, fmt.Errorf("%w: %w", ErrStat, err))
	}
	if !st.IsDir() {
		return nil, terrors.CrawlFailed(root, fmt.Errorf("%w: %s", ErrRootNotDir, canonical))
	}

	c := &crawl{root: canonical, visited: map[string]struct{}{}}
	dir, err := c.dir(canonical)
	if err != nil {
		return nil, terrors.CrawlFailed(root, err)
	}
	return dir, nil
}

type crawl struct {
	root    string
	visited map[string]struct{}
}

// inside reports whether the canonical path lies below the crawl root.
func (c *crawl) inside(path string) bool {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func (c *crawl) dir(path string) (*CrawledDir, error) {
	c.visited[path] = struct{}{}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirRead, path, err)
	}

	out := &CrawledDir{Path: path}
	for _, entry := range entries {
		entryPath := filepath.Join(path, entry.Name())

		// Stat follows symlinks so linked files and directories are included.
		info, err := os.Stat(entryPath)
		if err != nil {
			if entry.Type()&fs.ModeSymlink != 0 && errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Skipping dangling symlink", logfields.Path(entryPath))
				continue
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrStat, entryPath, err)
		}

		switch {
		case info.Mode().IsRegular() && IsMarkdown(entryPath):
			canonical, err := Canonicalize(entryPath)
			if err != nil {
				return nil, err
			}
			if !c.inside(canonical) {
				slog.Warn("Skipping symlink outside the source root", logfields.Path(entryPath), logfields.Root(c.root))
				continue
			}
			out.Entries = append(out.Entries, CrawledEntry{File: &CrawledFile{Path: canonical}})
		case info.IsDir():
			canonical, err := Canonicalize(entryPath)
			if err != nil {
				return nil, err
			}
			if !c.inside(canonical) {
				slog.Warn("Skipping symlink outside the source root", logfields.Path(entryPath), logfields.Root(c.root))
				continue
			}
			if _, seen := c.visited[canonical]; seen {
				slog.Debug("Skipping already visited directory", logfields.Path(entryPath))
				continue
			}
			sub, err := c.dir(canonical)
			if err != nil {
				return nil, err
			}
			out.Entries = append(out.Entries, CrawledEntry{Dir: sub})
		}
	}
	return out, nil
}

// Flatten returns the files of a crawl tree depth-first in entry order.
func Flatten(dir *CrawledDir) []CrawledFile {
	if dir == nil {
		return nil
	}
	var files []CrawledFile
	for _, entry := range dir.Entries {
		switch {
		case entry.File != nil:
			files = append(files, *entry.File)
		case entry.Dir != nil:
			files = append(files, Flatten(entry.Dir)...)
		}
	}
	return files
}

// Paths extracts the path of each crawled file.
func Paths(files []CrawledFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
