package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qi-lang/qi/internal/ast"
	"github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/types"
)

func callPrintln(arg ast.Expr) *ast.ExprStmt {
	call := &ast.CallExpr{
		ExprBase: ast.NewExpr(span.Span{}),
		Callee:   &ast.IdentExpr{ExprBase: ast.NewExpr(span.Span{}), Name: "println"},
		Args:     []ast.Expr{arg},
	}
	return &ast.ExprStmt{StmtBase: ast.NewStmt(span.Span{}), X: call}
}

func TestGenerateHelloWorldMain(t *testing.T) {
	strLit := &ast.LiteralExpr{ExprBase: ast.NewExpr(span.Span{}), Kind: ast.LitString, Str: "你好"}
	strLit.SetType(types.NewPrimitive(types.String))

	body := &ast.BlockStmt{StmtBase: ast.NewStmt(span.Span{}), Stmts: []ast.Stmt{callPrintln(strLit)}}
	fn := &ast.FuncDecl{
		ItemBase:       ast.NewItem(ast.Public, span.Span{}),
		Name:           "主",
		Body:           body,
		ResolvedReturn: types.NewPrimitive(types.Void),
	}
	prog := &ast.Program{Items: []ast.Item{fn}}

	gen := New("hello")
	mod := gen.Generate(prog)
	require.Len(t, mod.Functions, 1)
	assert.Equal(t, "main", mod.Functions[0].Name)
	assert.Equal(t, "i32", mod.Functions[0].ReturnType)

	text := mod.Text()
	assert.Contains(t, text, "runtime_println_string")
	assert.Contains(t, text, "func main(")
}

func TestGenerateVoidFunctionFallsThroughToRetVoid(t *testing.T) {
	fn := &ast.FuncDecl{
		ItemBase:       ast.NewItem(ast.Public, span.Span{}),
		Name:           "什么都不做",
		Body:           &ast.BlockStmt{StmtBase: ast.NewStmt(span.Span{})},
		ResolvedReturn: types.NewPrimitive(types.Void),
	}
	prog := &ast.Program{Items: []ast.Item{fn}}

	gen := New("m")
	mod := gen.Generate(prog)
	require.Len(t, mod.Functions, 1)
	last := mod.Functions[0].Blocks[len(mod.Functions[0].Blocks)-1]
	assert.True(t, last.Terminated)
	assert.Equal(t, "ret void", last.Term.String())
}
