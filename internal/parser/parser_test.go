package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/lexer"
	"github.com/qi-lang/qi/internal/span"
)

func parseSrc(t *testing.T, src string) (*ast.Program, []error) {
	t.Helper()
	fset := span.NewFileSet()
	file := fset.AddFile("t.qi", []byte(src))
	lx := lexer.New(file, []byte(src))
	toks, lexDiags := lx.Lex()
	require.Empty(t, lexDiags)
	prog, diags := Parse(file.ID, toks)
	errs := make([]error, 0, len(diags))
	for _, d := range diags {
		errs = append(errs, assert.AnError)
		_ = d
	}
	return prog, errs
}

func TestParseFuncDeclWithParamsAndReturn(t *testing.T) {
	prog, errs := parseSrc(t, "函数 相加(甲: 整数, 乙: 整数) -> 整数 { 返回 甲; }")
	require.Empty(t, errs)
	require.Len(t, prog.Items, 1)
	fn, ok := prog.Items[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "相加", fn.Name)
	assert.False(t, fn.Async)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "甲", fn.Params[0].Name)
	assert.NotNil(t, fn.ReturnType)
}

func TestParseAsyncFuncDecl(t *testing.T) {
	prog, errs := parseSrc(t, "异步 函数 取(t: 整数) { }")
	require.Empty(t, errs)
	fn, ok := prog.Items[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.True(t, fn.Async)
}

func TestParseIfElseChain(t *testing.T) {
	prog, errs := parseSrc(t, "函数 主() { 如果 真 { } 否则 如果 假 { } 否则 { } }")
	require.Empty(t, errs)
	fn := prog.Items[0].(*ast.FuncDecl)
	require.Len(t, fn.Body.Stmts, 1)
	ifStmt, ok := fn.Body.Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	elseIf, ok := ifStmt.Else.(*ast.IfStmt)
	require.True(t, ok)
	assert.NotNil(t, elseIf.Else)
}

func TestParseForInStmt(t *testing.T) {
	prog, errs := parseSrc(t, "函数 主() { 对于 项 属于 数据 { } }")
	require.Empty(t, errs)
	fn := prog.Items[0].(*ast.FuncDecl)
	require.Len(t, fn.Body.Stmts, 1)
	forIn, ok := fn.Body.Stmts[0].(*ast.ForInStmt)
	require.True(t, ok)
	assert.Equal(t, "项", forIn.Var)
}

func TestParseStructDeclWithFieldDefaults(t *testing.T) {
	prog, errs := parseSrc(t, "结构体 点 { x: 整数 = 0, y: 整数 = 0 }")
	require.Empty(t, errs)
	sd, ok := prog.Items[0].(*ast.StructDecl)
	require.True(t, ok)
	require.Len(t, sd.Fields, 2)
	assert.Equal(t, "x", sd.Fields[0].Name)
	assert.NotNil(t, sd.Fields[0].Default)
}

func TestParseDuplicateItemsBothSurviveRecovery(t *testing.T) {
	prog, _ := parseSrc(t, "函数 甲() { } 函数 甲() { }")
	require.Len(t, prog.Items, 2)
}
