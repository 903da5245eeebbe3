package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/gogpu/shadevm/wasm"
)

// Config is the TOML file schema. Flags override file settings.
type Config struct {
	DebugStepping      bool `toml:"debug_stepping"`
	LegacyNameMatching bool `toml:"legacy_name_matching"`

	Bindings struct {
		Attributes map[string]uint32 `toml:"attributes"`
		Varyings   map[string]uint32 `toml:"varyings"`
		Outputs    map[string]uint32 `toml:"outputs"`
		Uniforms   map[string]uint32 `toml:"uniforms"`
	} `toml:"bindings"`
}

// loadOptions merges the optional config file with command-line flags into
// backend options.
func loadOptions(cmd *cobra.Command) (wasm.Options, error) {
	var cfg Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return wasm.Options{}, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	if set, _ := cmd.Flags().GetBool("debug-step"); set {
		cfg.DebugStepping = true
	}
	if set, _ := cmd.Flags().GetBool("legacy-names"); set {
		cfg.LegacyNameMatching = true
	}

	return wasm.Options{
		DebugStepping:      cfg.DebugStepping,
		LegacyNameMatching: cfg.LegacyNameMatching,
		Bindings: wasm.Bindings{
			Attributes: cfg.Bindings.Attributes,
			Varyings:   cfg.Bindings.Varyings,
			Outputs:    cfg.Bindings.Outputs,
			Uniforms:   cfg.Bindings.Uniforms,
		},
	}, nil
}
