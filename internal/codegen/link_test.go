package codegen

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkInvokesLinkerAndChmods(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("chmod 0o755 semantics are POSIX-only")
	}
	dir := t.TempDir()
	obj := filepath.Join(dir, "main.o")
	require.NoError(t, os.WriteFile(obj, []byte("fake object"), 0o644))
	out := filepath.Join(dir, "program")

	// Stand-in linker script: creates the output path it's given
	// instead of requiring a real C toolchain in this environment.
	fakeLinker := filepath.Join(dir, "fake-linker.sh")
	require.NoError(t, os.WriteFile(fakeLinker, []byte("#!/bin/sh\ntouch \"$4\"\n"), 0o755))

	err := Link(obj, LinkOptions{Linker: fakeLinker, RuntimeLib: "rt.a", OutputPath: out})
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestLinkReturnsErrorOnLinkerFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "program")
	err := Link("missing.o", LinkOptions{Linker: "/bin/false", RuntimeLib: "rt.a", OutputPath: out})
	assert.Error(t, err)
}
