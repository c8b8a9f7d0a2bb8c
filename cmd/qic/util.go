package main

import (
	"path/filepath"
	"strings"
)

// moduleNameFor derives a module's qualified name from its source
// path: the file's base name without its .qi extension, the same name
// an import naming this file would use.
func moduleNameFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
