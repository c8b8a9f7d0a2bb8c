package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qi-lang/qi/internal/config"
	"github.com/qi-lang/qi/internal/modcache"
	"github.com/qi-lang/qi/internal/pipeline"
	"github.com/qi-lang/qi/internal/registry"
	"github.com/qi-lang/qi/internal/span"
)

func newBuildCmd() *cobra.Command {
	var outPath string
	var emitIR bool
	var cachePath string

	cmd := &cobra.Command{
		Use:   "build <files...>",
		Short: "Compile .qi files down to IR written to <output>.qir (no native executable is linked)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			fset := span.NewFileSet()
			reg := registry.New()

			cache, err := modcache.Open(cachePath)
			if err != nil {
				return err
			}
			defer cache.Close()

			var units []*pipeline.Unit
			for _, path := range args {
				u, err := pipeline.Load(fset, path)
				if err != nil {
					return err
				}
				modName := moduleNameFor(path)
				pipeline.Analyze(reg, u, modName)
				units = append(units, u)

				if out := u.FormatDiags(); out != "" {
					fmt.Print(out)
				}
				if u.HasErrors() {
					return fmt.Errorf("qic build: %s failed to check", path)
				}

				var exports []modcache.ExportedSymbol
				if u.Sema != nil {
					for name, sym := range u.Sema.Module.Exports {
						exports = append(exports, modcache.ExportedSymbol{
							Name: name,
							Kind: fmt.Sprint(sym.Kind),
							Type: sym.Type.String(),
						})
					}
				}
				if err := cache.Put(modName, path, u.Hash, exports); err != nil {
					return fmt.Errorf("qic build: cache write for %s: %w", path, err)
				}
			}

			for _, u := range units {
				pipeline.Generate(u, moduleNameFor(u.Path))
			}

			if outPath == "" {
				outPath = "a.out"
			}
			objPath := outPath + ".qir"
			var irText string
			for _, u := range units {
				if u.Module != nil {
					irText += u.Module.Text()
				}
			}
			if err := os.WriteFile(objPath, []byte(irText), 0o644); err != nil {
				return fmt.Errorf("qic build: write IR: %w", err)
			}
			if emitIR {
				fmt.Println(irText)
				return nil
			}

			if _, err := os.Stat(cfg.RuntimeLib); err != nil {
				fmt.Fprintf(os.Stderr, "qic build: runtime archive %s not found; wrote IR only to %s\n", cfg.RuntimeLib, objPath)
				return nil
			}
			return fmt.Errorf("qic build: assembling %s to a native object file requires an external backend not wired into this build; pass --emit-ir to stop after IR generation", objPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output base path; IR is written to <path>.qir")
	cmd.Flags().BoolVar(&emitIR, "emit-ir", false, "also print the generated IR and stop")
	cmd.Flags().StringVar(&cachePath, "cache", ".qi/modcache.db", "module cache database path")

	return cmd
}
