// Package sandbox maps decoded request paths to filesystem locations that are
// guaranteed to lie inside a fixed root directory.
//
// Paths are canonicalized (made absolute, with "." and ".." and symbolic links
// resolved) before the containment check, and the check compares whole path
// segments, so "/srv/root-evil" is never accepted under "/srv/root".
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	srverrors "github.com/f4ah6o/dirserve-go/internal/errors"
)

// ErrNotFound is returned for every rejected path. Paths outside the root and
// paths that do not exist are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")

// Resolver resolves request paths against a canonical root.
// It is immutable after New and safe for concurrent use.
type Resolver struct {
	root            string
	unicodeFallback bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithUnicodeFallback makes Resolve retry a missing path once in the other
// Unicode normalization form (NFC or NFD).
func WithUnicodeFallback(on bool) Option {
	return func(r *Resolver) {
		r.unicodeFallback = on
	}
}

// New canonicalizes root and returns a Resolver for it.
func New(root string, opts ...Option) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", canonical, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", canonical)
	}

	r := &Resolver{root: canonical}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the canonical root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve maps a decoded request path to a canonical path inside the root.
// A single leading "/" is stripped and the rest is taken relative to the root.
func (r *Resolver) Resolve(logical string) (string, error) {
	rel := strings.TrimPrefix(logical, "/")

	resolved, err := r.canonicalize(rel)
	if err != nil && r.unicodeFallback && errors.Is(err, fs.ErrNotExist) {
		if alt := alternateForm(rel); alt != rel {
			resolved, err = r.canonicalize(alt)
		}
	}
	if err != nil {
		return "", srverrors.New(srverrors.KindResolution, "resolve", fmt.Errorf("%w: %v", ErrNotFound, err))
	}

	if !r.contains(resolved) {
		return "", srverrors.New(srverrors.KindResolution, "resolve", ErrNotFound)
	}
	return resolved, nil
}

// canonicalize joins rel onto the root without lexical cleaning, so ".."
// is applied after any symbolic link before it has been followed.
func (r *Resolver) canonicalize(rel string) (string, error) {
	candidate := r.root + string(filepath.Separator) + rel
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

// contains reports whether p is the root or lies below it.
func (r *Resolver) contains(p string) bool {
	if p == r.root {
		return true
	}
	prefix := r.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

func alternateForm(s string) string {
	if nfc := norm.NFC.String(s); nfc != s {
		return nfc
	}
	return norm.NFD.String(s)
}
