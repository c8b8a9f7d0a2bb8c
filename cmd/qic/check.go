package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qi-lang/qi/internal/pipeline"
	"github.com/qi-lang/qi/internal/registry"
	"github.com/qi-lang/qi/internal/span"
)

// newCheckCmd runs the front end only - lexing, parsing, and semantic
// analysis - and reports diagnostics without generating code.
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <files...>",
		Short: "Type-check one or more .qi files without producing output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := checkFiles(args)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("qic check: one or more files failed to check")
			}
			fmt.Println("ok")
			return nil
		},
	}
	return cmd
}

// checkFiles loads, parses, and type-checks every path, printing their
// diagnostics and reporting whether all of them checked clean.
func checkFiles(paths []string) (bool, error) {
	fset := span.NewFileSet()
	reg := registry.New()
	ok := true

	for _, path := range paths {
		u, err := pipeline.Load(fset, path)
		if err != nil {
			return false, err
		}
		modName := moduleNameFor(path)
		pipeline.Analyze(reg, u, modName)
		if u.HasErrors() {
			ok = false
		}
		if out := u.FormatDiags(); out != "" {
			fmt.Print(out)
		}
	}
	return ok, nil
}
