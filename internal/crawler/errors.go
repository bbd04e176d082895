package crawler

// Sentinel errors for source crawling. They enable consistent classification
// of startup failures.

import "errors"

var (
	// ErrRootNotDir indicates the crawl root is missing or not a directory.
	ErrRootNotDir = errors.New("crawl root is not a directory")

	// ErrDirRead indicates listing a directory failed.
	ErrDirRead = errors.New("directory read failed")

	// ErrStat indicates reading entry metadata failed.
	ErrStat = errors.New("entry metadata read failed")

	// ErrCanonicalize indicates a path could not be resolved to its canonical form.
	ErrCanonicalize = errors.New("path canonicalization failed")
)
