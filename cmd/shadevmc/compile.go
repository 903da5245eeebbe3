package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/shadevm/wasm"
)

var compileCmd = &cobra.Command{
	Use:   "compile <sample>",
	Short: "compile a built-in sample shader to a bytecode module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}

		name := args[0]
		build, ok := sampleModules[name]
		if !ok {
			return fmt.Errorf("unknown sample %q (run \"shadevmc samples\" for the list)", name)
		}

		out, err := wasm.New(opts).Compile(build())
		if err != nil {
			return fmt.Errorf("compiling %s: %w", name, err)
		}

		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			path = name + ".wasm"
		}
		if err := os.WriteFile(path, out.Bytes, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		if manifestPath, _ := cmd.Flags().GetString("manifest"); manifestPath != "" {
			if err := writeManifest(manifestPath, name, out); err != nil {
				return err
			}
		}

		entries := make([]string, 0, len(out.EntryPoints))
		for entry := range out.EntryPoints {
			entries = append(entries, entry)
		}
		sort.Strings(entries)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes, entry points: %s\n",
			path, len(out.Bytes), strings.Join(entries, ", "))

		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "  attribute region: %d bytes\n", out.Regions.Attribute)
			fmt.Fprintf(w, "  uniform region:   %d bytes\n", out.Regions.Uniform)
			fmt.Fprintf(w, "  varying region:   %d bytes\n", out.Regions.Varying)
			fmt.Fprintf(w, "  private region:   %d bytes\n", out.Regions.Private)
			for _, entry := range entries {
				fmt.Fprintf(w, "  entry %q at function index %d\n", entry, out.EntryPoints[entry])
			}
		}
		return nil
	},
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "output path (default <sample>.wasm)")
	compileCmd.Flags().String("manifest", "", "write a msgpack manifest to this path")
	compileCmd.Flags().BoolP("verbose", "v", false, "print region sizes and the entry table")
}
