// Package modresolve turns an import path from a Qi source file into a
// concrete .qi file on disk, searching a configured list of module
// roots the way a compiler's include-path resolution normally works.
package modresolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Resolver locates .qi source files for dotted import paths such as
// `包.工具` by checking a fixed set of root directories in order.
type Resolver struct {
	roots []string
}

// New builds a Resolver searching roots in order; the first root that
// contains the import's .qi file wins.
func New(roots ...string) *Resolver {
	return &Resolver{roots: roots}
}

// Resolve converts a dotted import path into the absolute path of the
// .qi file that defines it, returning an error naming every root it
// tried if none match.
func (r *Resolver) Resolve(importPath string) (string, error) {
	rel := strings.ReplaceAll(importPath, ".", string(filepath.Separator)) + ".qi"
	var tried []string
	for _, root := range r.roots {
		candidate := filepath.Join(root, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		tried = append(tried, candidate)
	}
	return "", fmt.Errorf("modresolve: no .qi file for import %q (tried %s)", importPath, strings.Join(tried, ", "))
}

// Glob lists every .qi file under root matching pattern (doublestar
// syntax, so `**/*.qi` recurses), so a caller can discover a module's
// full source set without enumerating files by hand.
func (r *Resolver) Glob(root, pattern string) ([]string, error) {
	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("modresolve: bad pattern %q: %w", pattern, err)
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(root, m)
	}
	return out, nil
}

// QiFilesUnder is a convenience wrapper for the common case of finding
// every .qi file anywhere under root.
func (r *Resolver) QiFilesUnder(root string) ([]string, error) {
	return r.Glob(root, "**/*.qi")
}
