package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shadevm/wasm"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "compile every built-in sample shader",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out-dir")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", outDir, err)
		}

		names := make([]string, 0, len(sampleModules))
		for name := range sampleModules {
			names = append(names, name)
		}
		sort.Strings(names)

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		var g errgroup.Group
		g.SetLimit(runtime.NumCPU())
		for _, name := range names {
			g.Go(func() error {
				out, err := wasm.New(opts).Compile(sampleModules[name]())
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", red("FAIL"), name, err)
					return fmt.Errorf("%s: %w", name, err)
				}
				path := filepath.Join(outDir, name+".wasm")
				if err := os.WriteFile(path, out.Bytes, 0o644); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d bytes)\n", green("OK"), name, len(out.Bytes))
				return nil
			})
		}
		return g.Wait()
	},
}

func init() {
	batchCmd.Flags().String("out-dir", ".", "directory for compiled modules")
}
