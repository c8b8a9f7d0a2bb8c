// Package pipeline wires the compiler stages - lexer, parser, semantic
// analyzer, code generator - into the single-file compilation sequence
// qic's subcommands drive.
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/codegen"
	"github.com/qi-lang/qi/internal/diag"
	"github.com/qi-lang/qi/internal/ir"
	"github.com/qi-lang/qi/internal/lexer"
	"github.com/qi-lang/qi/internal/parser"
	"github.com/qi-lang/qi/internal/registry"
	"github.com/qi-lang/qi/internal/sema"
	"github.com/qi-lang/qi/internal/span"
)

// Unit is one source file carried through every stage along with the
// diagnostics each stage produced.
type Unit struct {
	Path    string
	FileSet *span.FileSet
	FileID  span.FileID
	Source  []byte
	Hash    string

	Program *ast.Program
	Sema    *sema.Result
	Module  *ir.Module

	Diags []diag.Diagnostic
}

// Load reads path and tokenizes + parses it, stopping before semantic
// analysis so callers can batch multiple files into one registry
// before resolving imports.
func Load(fset *span.FileSet, path string) (*Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read %s: %w", path, err)
	}
	sum := sha256.Sum256(src)

	file := fset.AddFile(path, src)
	u := &Unit{
		Path:    path,
		FileSet: fset,
		FileID:  file.ID,
		Source:  src,
		Hash:    hex.EncodeToString(sum[:]),
	}

	lx := lexer.New(file, src)
	toks, lexDiags := lx.Lex()
	u.Diags = append(u.Diags, lexDiags...)

	prog, parseDiags := parser.Parse(file.ID, toks)
	u.Diags = append(u.Diags, parseDiags...)
	u.Program = prog

	return u, nil
}

// Analyze runs the semantic analyzer for u against the shared registry,
// registering u's module under modName.
func Analyze(reg *registry.Registry, u *Unit, modName string) {
	an := sema.New(reg, u.FileID, modName)
	result, diags := an.Analyze(u.Program)
	u.Diags = append(u.Diags, diags...)
	u.Sema = result
}

// Generate lowers u's checked program to IR, skipping units whose
// semantic analysis failed.
func Generate(u *Unit, moduleName string) {
	if u.Sema == nil {
		return
	}
	gen := codegen.New(moduleName)
	u.Module = gen.Generate(u.Program)
}

// HasErrors reports whether u accumulated any error-severity diagnostic
// across every stage run so far.
func (u *Unit) HasErrors() bool {
	return diag.HasErrors(u.Diags)
}

// FormatDiags renders every diagnostic against u's file set.
func (u *Unit) FormatDiags() string {
	var out string
	for _, d := range u.Diags {
		out += d.Format(u.FileSet) + "\n"
	}
	return out
}
