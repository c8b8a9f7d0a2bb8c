package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qi-lang/qi/internal/lexer"
	"github.com/qi-lang/qi/internal/parser"
	"github.com/qi-lang/qi/internal/registry"
	"github.com/qi-lang/qi/internal/span"
)

func TestAnalyzeSimpleFunctionOK(t *testing.T) {
	fset := span.NewFileSet()
	src := "函数 主() { 变量 x = 1; }"
	file := fset.AddFile("t.qi", []byte(src))
	lx := lexer.New(file, []byte(src))
	toks, lexDiags := lx.Lex()
	require.Empty(t, lexDiags)

	prog, parseDiags := parser.Parse(file.ID, toks)
	require.Empty(t, parseDiags)

	reg := registry.New()
	an := New(reg, file.ID, "t")
	result, diags := an.Analyze(prog)
	require.Empty(t, diags)
	require.NotNil(t, result)
	assert.Equal(t, "t", result.Module.QualifiedName)
}

func TestAnalyzeDuplicateTopLevelDeclIsError(t *testing.T) {
	fset := span.NewFileSet()
	src := "函数 甲() { } 函数 甲() { }"
	file := fset.AddFile("t.qi", []byte(src))
	lx := lexer.New(file, []byte(src))
	toks, _ := lx.Lex()
	prog, _ := parser.Parse(file.ID, toks)

	reg := registry.New()
	an := New(reg, file.ID, "t")
	_, diags := an.Analyze(prog)
	assert.NotEmpty(t, diags)
}

func TestAnalyzeStructLiteralOmittedFieldUsesDefault(t *testing.T) {
	fset := span.NewFileSet()
	src := "结构体 点 { x: 整数 = 0, y: 整数 = 0 } 函数 主() { 变量 p = 点 { x: 1 }; }"
	file := fset.AddFile("t.qi", []byte(src))
	lx := lexer.New(file, []byte(src))
	toks, lexDiags := lx.Lex()
	require.Empty(t, lexDiags)
	prog, parseDiags := parser.Parse(file.ID, toks)
	require.Empty(t, parseDiags)

	reg := registry.New()
	an := New(reg, file.ID, "t")
	_, diags := an.Analyze(prog)
	for _, d := range diags {
		assert.NotEqual(t, "SEMA_WRONG_ARITY", string(d.Code), d.Message)
	}
}

func TestAndOrRequireBooleanOperands(t *testing.T) {
	fset := span.NewFileSet()
	src := "函数 主() { 变量 x = 1 且 真; }"
	file := fset.AddFile("t.qi", []byte(src))
	lx := lexer.New(file, []byte(src))
	toks, lexDiags := lx.Lex()
	require.Empty(t, lexDiags)
	prog, parseDiags := parser.Parse(file.ID, toks)
	require.Empty(t, parseDiags)

	reg := registry.New()
	an := New(reg, file.ID, "t")
	_, diags := an.Analyze(prog)
	require.NotEmpty(t, diags)
	assert.Equal(t, "SEMA_TYPE_MISMATCH", string(diags[0].Code))
}

func TestEnforceVisibilityRejectsPrivateTypeInPublicSignature(t *testing.T) {
	fset := span.NewFileSet()
	src := "私有 结构体 甲 { x: 整数 } 公开 函数 乙(a: 甲) { }"
	file := fset.AddFile("t.qi", []byte(src))
	lx := lexer.New(file, []byte(src))
	toks, lexDiags := lx.Lex()
	require.Empty(t, lexDiags)
	prog, parseDiags := parser.Parse(file.ID, toks)
	require.Empty(t, parseDiags)

	reg := registry.New()
	an := New(reg, file.ID, "t")
	_, diags := an.Analyze(prog)
	require.NotEmpty(t, diags)
	found := false
	for _, d := range diags {
		if string(d.Code) == "SEMA_VISIBILITY_VIOLATION" {
			found = true
		}
	}
	assert.True(t, found, "expected a visibility violation for the private parameter type")
}
