// Package config loads qic's runtime and toolchain settings from
// environment variables, optionally layered over a `.env` file in the
// working directory.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every knob qic and the async runtime it drives need at
// startup.
type Config struct {
	TargetTriple string
	Linker       string
	RuntimeLib   string

	Workers       int
	StackSizeKB   int
	GCThresholdKB int
}

// Load reads a `.env` file if one is present in the working directory
// (errors from a missing file are ignored, same as the teacher's entry
// point does) and then layers environment variables, falling back to
// sane defaults for anything unset.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		TargetTriple:  envOr("QI_TARGET_TRIPLE", defaultTargetTriple()),
		Linker:        envOr("QI_LINKER", "cc"),
		RuntimeLib:    envOr("QI_RUNTIME_LIB", "libqirt.a"),
		Workers:       0,
		StackSizeKB:   2048,
		GCThresholdKB: 1024,
	}

	if v := os.Getenv("QI_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("QI_STACK_SIZE_KB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StackSizeKB = n
		}
	}
	if v := os.Getenv("QI_GC_THRESHOLD_KB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GCThresholdKB = n
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
