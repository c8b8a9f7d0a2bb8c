package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/types"
)

func TestItemBaseReportsVisibilityAndSpan(t *testing.T) {
	sp := span.Span{Start: 1, End: 5}
	b := NewItem(Public, sp)
	assert.Equal(t, Public, b.Vis())
	assert.Equal(t, sp, b.Span())
}

func TestExprBaseDefaultsToUnknownType(t *testing.T) {
	e := NewExpr(span.Span{Start: 0, End: 1})
	assert.Equal(t, types.Unknown, e.Type())
}

func TestExprBaseSetTypeOverridesDefault(t *testing.T) {
	e := NewExpr(span.Span{})
	str := types.NewPrimitive(types.String)
	e.SetType(str)
	assert.Equal(t, str, e.Type())
}

func TestFuncDeclSpanCombinesItemBaseSpan(t *testing.T) {
	body := &BlockStmt{StmtBase: NewStmt(span.Span{Start: 10, End: 20})}
	fn := &FuncDecl{Name: "甲", Body: body}
	fn.ItemBase = NewItem(Public, span.Span{Start: 0, End: 20})
	assert.Equal(t, 0, fn.Span().Start)
	assert.Equal(t, 20, fn.Span().End)
}

func TestStructDeclFieldDefaultIsOptional(t *testing.T) {
	sd := &StructDecl{
		Name: "点",
		Fields: []FieldDecl{
			{Name: "x", SpanVal: span.Span{}},
		},
	}
	assert.Nil(t, sd.Fields[0].Default)
}
