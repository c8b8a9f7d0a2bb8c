package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareAndLookupFindsNearestScope(t *testing.T) {
	tbl := NewTable()
	root := tbl.RootScope()
	_, ok := tbl.Declare(root, Symbol{Name: "甲", Kind: KindVariable})
	require.True(t, ok)

	child := tbl.PushScope(root, ScopeBlock, "")
	sym, found := tbl.Lookup(child, "甲")
	require.True(t, found)
	assert.Equal(t, "甲", sym.Name)
}

func TestDeclareRejectsDuplicateWithinSameKindClass(t *testing.T) {
	tbl := NewTable()
	root := tbl.RootScope()
	_, ok := tbl.Declare(root, Symbol{Name: "甲", Kind: KindVariable})
	require.True(t, ok)
	_, ok = tbl.Declare(root, Symbol{Name: "甲", Kind: KindConstant})
	assert.False(t, ok, "variable and constant share a kind-class")
}

func TestDeclareAllowsDifferentKindClassSameName(t *testing.T) {
	tbl := NewTable()
	root := tbl.RootScope()
	_, ok := tbl.Declare(root, Symbol{Name: "甲", Kind: KindVariable})
	require.True(t, ok)
	_, ok = tbl.Declare(root, Symbol{Name: "甲", Kind: KindType})
	assert.True(t, ok, "variable and type occupy different kind-classes")
}

func TestShadowingAcrossScopesIsPermitted(t *testing.T) {
	tbl := NewTable()
	root := tbl.RootScope()
	outerID, ok := tbl.Declare(root, Symbol{Name: "甲", Kind: KindVariable})
	require.True(t, ok)

	child := tbl.PushScope(root, ScopeBlock, "")
	innerID, ok := tbl.Declare(child, Symbol{Name: "甲", Kind: KindVariable})
	require.True(t, ok)
	assert.NotEqual(t, outerID, innerID)

	sym, _ := tbl.Lookup(child, "甲")
	assert.Equal(t, innerID, sym.ID)
}

func TestLookupKindSkipsMismatchedKindClass(t *testing.T) {
	tbl := NewTable()
	root := tbl.RootScope()
	tbl.Declare(root, Symbol{Name: "甲", Kind: KindType})

	child := tbl.PushScope(root, ScopeBlock, "")
	tbl.Declare(child, Symbol{Name: "甲", Kind: KindVariable})

	sym, found := tbl.LookupKind(child, "甲", KindType)
	require.True(t, found)
	assert.Equal(t, KindType, sym.Kind)
}

func TestEnclosingLoopFindsLabeledLoop(t *testing.T) {
	tbl := NewTable()
	root := tbl.RootScope()
	loopScope := tbl.PushScope(root, ScopeLoop, "外层")
	inner := tbl.PushScope(loopScope, ScopeBlock, "")

	found, ok := tbl.EnclosingLoop(inner, "外层")
	require.True(t, ok)
	assert.Equal(t, loopScope, found)

	_, ok = tbl.EnclosingLoop(inner, "不存在")
	assert.False(t, ok)
}

func TestLookupMissingNameReturnsFalse(t *testing.T) {
	tbl := NewTable()
	_, found := tbl.Lookup(tbl.RootScope(), "不存在")
	assert.False(t, found)
}
