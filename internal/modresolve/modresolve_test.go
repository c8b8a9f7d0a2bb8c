package modresolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeQi(t *testing.T, root, rel string) string {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("// 包\n"), 0o644))
	return full
}

func TestResolveFindsFileAcrossRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	want := writeQi(t, rootB, filepath.Join("工具", "字符串.qi"))

	r := New(rootA, rootB)
	got, err := r.Resolve("工具.字符串")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveReportsEveryTriedRoot(t *testing.T) {
	rootA, rootB := t.TempDir(), t.TempDir()
	r := New(rootA, rootB)
	_, err := r.Resolve("缺失.模块")
	require.Error(t, err)
	assert.Contains(t, err.Error(), rootA)
	assert.Contains(t, err.Error(), rootB)
}

func TestQiFilesUnderRecurses(t *testing.T) {
	root := t.TempDir()
	writeQi(t, root, filepath.Join("a", "x.qi"))
	writeQi(t, root, filepath.Join("a", "b", "y.qi"))
	writeQi(t, root, "z.qi")

	r := New(root)
	files, err := r.QiFilesUnder(root)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}
