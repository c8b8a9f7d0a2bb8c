package modcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modcache.db")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPutAndGetRoundTrips(t *testing.T) {
	c := openTestCache(t)
	exports := []ExportedSymbol{{Name: "加", Kind: "function", Type: "(整数, 整数) -> 整数"}}

	require.NoError(t, c.Put("数学.加法", "math/add.qi", "hash1", exports))

	rec, ok, err := c.Get("数学.加法")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "math/add.qi", rec.SourcePath)

	decoded, err := rec.DecodeExports()
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "加", decoded[0].Name)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	c := openTestCache(t)
	_, ok, err := c.Get("不存在.模块")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsStaleDetectsHashChange(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("m", "m.qi", "hash1", nil))

	stale, err := c.IsStale("m", "hash1")
	require.NoError(t, err)
	assert.False(t, stale)

	stale, err = c.IsStale("m", "hash2")
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestIsStaleTrueWhenUncached(t *testing.T) {
	c := openTestCache(t)
	stale, err := c.IsStale("never-cached", "anything")
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestInvalidateRemovesEntry(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Put("m", "m.qi", "hash1", nil))
	require.NoError(t, c.Invalidate("m"))

	_, ok, err := c.Get("m")
	require.NoError(t, err)
	assert.False(t, ok)
}
