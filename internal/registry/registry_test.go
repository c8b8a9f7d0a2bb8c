package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.Register(&Module{QualifiedName: "甲"})
	m, ok := r.Lookup("甲")
	require.True(t, ok)
	assert.Equal(t, "甲", m.QualifiedName)
}

func TestLookupMissingModuleReturnsFalse(t *testing.T) {
	r := New()
	_, ok := r.Lookup("不存在")
	assert.False(t, ok)
}

func TestBeginResolveDetectsCycle(t *testing.T) {
	r := New()
	r.Register(&Module{QualifiedName: "甲"})
	require.NoError(t, r.BeginResolve("甲"))
	err := r.BeginResolve("甲")
	assert.Error(t, err)
}

func TestBeginResolveOnUnregisteredModuleErrors(t *testing.T) {
	r := New()
	err := r.BeginResolve("不存在")
	assert.Error(t, err)
}

func TestEndResolveMarksModuleResolved(t *testing.T) {
	r := New()
	r.Register(&Module{QualifiedName: "甲"})
	require.NoError(t, r.BeginResolve("甲"))
	r.EndResolve("甲")
	m, _ := r.Lookup("甲")
	assert.Equal(t, Resolved, m.State)
}

func TestBeginResolveIsNoopOnAlreadyResolved(t *testing.T) {
	r := New()
	r.Register(&Module{QualifiedName: "甲"})
	require.NoError(t, r.BeginResolve("甲"))
	r.EndResolve("甲")
	assert.NoError(t, r.BeginResolve("甲"))
}

func TestAllReturnsEveryRegisteredModule(t *testing.T) {
	r := New()
	r.Register(&Module{QualifiedName: "甲"})
	r.Register(&Module{QualifiedName: "乙"})
	all := r.All()
	assert.Len(t, all, 2)
}
