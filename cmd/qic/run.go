package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qi-lang/qi/internal/config"
	"github.com/qi-lang/qi/internal/pipeline"
	"github.com/qi-lang/qi/internal/qirt"
	"github.com/qi-lang/qi/internal/registry"
	"github.com/qi-lang/qi/internal/span"
)

// newRunCmd compiles a single file to IR, starts and stops the
// in-process async runtime, and reports how many IR functions were
// produced. It does not execute the program's entry point.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Compile a single .qi file to IR and report the result (the entry point is not executed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			fset := span.NewFileSet()
			reg := registry.New()

			u, err := pipeline.Load(fset, path)
			if err != nil {
				return err
			}
			modName := moduleNameFor(path)
			pipeline.Analyze(reg, u, modName)
			if out := u.FormatDiags(); out != "" {
				fmt.Print(out)
			}
			if u.HasErrors() {
				return fmt.Errorf("qic run: %s failed to check", path)
			}

			pipeline.Generate(u, modName)

			cfg := config.Load()
			rt := qirt.Init(qirt.Config{Workers: cfg.Workers})
			defer rt.Shutdown()

			fmt.Printf("; compiled %s to %d IR function(s); native execution requires the linked runtime\n",
				path, len(u.Module.Functions))
			return nil
		},
	}
	return cmd
}
