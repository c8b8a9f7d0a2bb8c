package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qi-lang/qi/internal/span"
	"github.com/qi-lang/qi/internal/token"
)

func TestLexKeywordsAndIdent(t *testing.T) {
	fset := span.NewFileSet()
	src := "函数 主 foo"
	file := fset.AddFile("t.qi", []byte(src))
	lx := New(file, []byte(src))
	toks, diags := lx.Lex()
	require.Empty(t, diags)
	require.Len(t, toks, 4) // KwFunction, Ident(主), Ident(foo), EOF
	assert.Equal(t, token.KwFunction, toks[0].Kind)
	assert.Equal(t, token.Ident, toks[1].Kind)
	assert.Equal(t, "主", toks[1].Lexeme)
	assert.Equal(t, token.Ident, toks[2].Kind)
	assert.Equal(t, "foo", toks[2].Lexeme)
	assert.Equal(t, token.EOF, toks[3].Kind)
}

func TestLexIntAndFloatLiterals(t *testing.T) {
	fset := span.NewFileSet()
	src := "42 3.5"
	file := fset.AddFile("t.qi", []byte(src))
	lx := New(file, []byte(src))
	toks, diags := lx.Lex()
	require.Empty(t, diags)
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, token.IntLiteral, toks[0].Kind)
	assert.EqualValues(t, 42, toks[0].Literal.Int)
	assert.Equal(t, token.FloatLiteral, toks[1].Kind)
	assert.InDelta(t, 3.5, toks[1].Literal.Float, 0.0001)
}

func TestLexStringLiteralWithCJKContent(t *testing.T) {
	fset := span.NewFileSet()
	src := `"你好"`
	file := fset.AddFile("t.qi", []byte(src))
	lx := New(file, []byte(src))
	toks, diags := lx.Lex()
	require.Empty(t, diags)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.StringLiteral, toks[0].Kind)
	assert.Equal(t, "你好", toks[0].Literal.Str)
}

func TestLexLongestPrefixPunctuation(t *testing.T) {
	fset := span.NewFileSet()
	src := "-> == != <= >= && ||"
	file := fset.AddFile("t.qi", []byte(src))
	lx := New(file, []byte(src))
	toks, diags := lx.Lex()
	require.Empty(t, diags)
	kinds := []token.Kind{token.Arrow, token.EqEq, token.NotEq, token.Le, token.Ge, token.AndAnd, token.OrOr}
	for i, k := range kinds {
		assert.Equal(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestLexOversizedFileProducesDiagnostic(t *testing.T) {
	fset := span.NewFileSet()
	big := make([]byte, MaxSourceBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	file := fset.AddFile("big.qi", big)
	lx := New(file, big)
	_, diags := lx.Lex()
	require.NotEmpty(t, diags)
}

func TestLexStripsBOM(t *testing.T) {
	fset := span.NewFileSet()
	src := "\xEF\xBB\xBF函数"
	file := fset.AddFile("t.qi", []byte(src))
	lx := New(file, []byte(src))
	toks, diags := lx.Lex()
	require.Empty(t, diags)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.KwFunction, toks[0].Kind)
}
