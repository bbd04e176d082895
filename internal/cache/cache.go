// Package cache tracks content hashes of generated notes so unchanged files
// can be skipped. Entries live in memory for the lifetime of the process.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

var (
	// ErrNotFound indicates the file no longer exists.
	ErrNotFound = errors.New("file not found")
	// ErrReadFailure indicates the file exists but could not be read.
	ErrReadFailure = errors.New("file read failed")
)

// Kind classifies a ReadError.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindReadFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindReadFailure:
		return "read_failure"
	default:
		return "unknown"
	}
}

// ReadError is returned by Update and Modified when a file cannot be hashed.
type ReadError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels.
func (e *ReadError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrReadFailure:
		return e.Kind == KindReadFailure
	}
	return false
}

// Cache maps absolute file paths to the SHA-256 of their last generated
// content and owns the output root the generated pages are written under.
//
// A Cache is not safe for concurrent use; it has a single owner.
type Cache struct {
	path  string
	files map[string]string
}

// New creates a cache whose output root is path, creating the directory if
// it does not exist.
func New(path string) (*Cache, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", path, err)
	}
	return &Cache{
		path:  path,
		files: make(map[string]string),
	}, nil
}

// Path returns the output root directory.
func (c *Cache) Path() string { return c.path }

// Files returns every tracked path in lexical order.
func (c *Cache) Files() []string {
	out := make([]string, 0, len(c.files))
	for p := range c.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of tracked paths.
func (c *Cache) Len() int { return len(c.files) }

// Hash returns the recorded digest for path.
func (c *Cache) Hash(path string) (string, bool) {
	h, ok := c.files[path]
	return h, ok
}

// Update records the current content hash of path. When the file cannot be
// read the existing entry is left untouched and a *ReadError is returned.
func (c *Cache) Update(path string) error {
	h, err := hashFile(path)
	if err != nil {
		return err
	}
	c.files[path] = h
	return nil
}

// Record stores digest as the content hash of path. Callers pass the digest
// of the bytes they actually generated from.
func (c *Cache) Record(path, digest string) {
	c.files[path] = digest
}

// Modified reports whether path is stale: it has no entry yet, or its current
// content hash differs from the recorded one. Untracked paths are not read.
func (c *Cache) Modified(path string) (bool, error) {
	recorded, ok := c.files[path]
	if !ok {
		return true, nil
	}
	current, err := hashFile(path)
	if err != nil {
		return false, err
	}
	return current != recorded, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		kind := KindReadFailure
		if errors.Is(err, fs.ErrNotExist) {
			kind = KindNotFound
		}
		return "", &ReadError{Path: path, Kind: kind, Err: err}
	}
	return Digest(data), nil
}

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
