package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("QI_WORKERS")
	os.Unsetenv("QI_STACK_SIZE_KB")
	os.Unsetenv("QI_GC_THRESHOLD_KB")
	os.Unsetenv("QI_LINKER")

	cfg := Load()
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, 2048, cfg.StackSizeKB)
	assert.Equal(t, 1024, cfg.GCThresholdKB)
	assert.Equal(t, "cc", cfg.Linker)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	os.Setenv("QI_WORKERS", "8")
	os.Setenv("QI_LINKER", "clang")
	defer os.Unsetenv("QI_WORKERS")
	defer os.Unsetenv("QI_LINKER")

	cfg := Load()
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "clang", cfg.Linker)
}

func TestLoadIgnoresInvalidInt(t *testing.T) {
	os.Setenv("QI_WORKERS", "not-a-number")
	defer os.Unsetenv("QI_WORKERS")

	cfg := Load()
	assert.Equal(t, 0, cfg.Workers)
}
