// Command shadevmc compiles built-in sample shaders to binary bytecode
// modules, as a demonstration and smoke test of the shadevm backend.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shadevmc",
	Short: "shadevm shader compiler",
	Long:  `shadevmc lowers shader IR modules to binary bytecode for the shadevm runtime`,
}

func main() {
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(samplesCmd)
	rootCmd.AddCommand(batchCmd)

	rootCmd.PersistentFlags().String("config", "", "TOML configuration file")
	rootCmd.PersistentFlags().Bool("debug-step", false, "enable debug stepping callbacks")
	rootCmd.PersistentFlags().Bool("legacy-names", false, "enable the legacy name-matching shim")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
