// Package shadevm compiles shader IR to binary bytecode for a scalar
// stack-machine VM.
//
// shadevm takes a typed, handle-indexed IR module and lowers it to a
// WebAssembly binary that a rasterizer runtime executes per vertex or per
// fragment. Vectors and matrices are scalarized during lowering; shader
// inputs and outputs travel through named regions of linear memory
// configured by the host before each invocation.
//
// The package provides a simple, high-level API:
//
//	module := buildModule() // *ir.Module from your front end
//	out, err := shadevm.Compile(module)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runtime.Load(out.Bytes, out.EntryPoints)
//
// For more control, use the wasm package directly:
//
//	backend := wasm.New(wasm.Options{DebugStepping: true})
//	out, err := backend.Compile(module)
package shadevm

import (
	"github.com/gogpu/shadevm/ir"
	"github.com/gogpu/shadevm/wasm"
)

// CompileOptions configures shader compilation.
type CompileOptions struct {
	// DebugStepping inserts host callbacks between statements and exports
	// internal functions for inspection.
	DebugStepping bool

	// LegacyNameMatching enables the name heuristic for modules without
	// binding metadata. Off by default; matches are logged as warnings.
	LegacyNameMatching bool

	// Bindings maps names to locations for modules whose IR carries no
	// explicit bindings.
	Bindings wasm.Bindings
}

// DefaultOptions returns sensible default options.
func DefaultOptions() CompileOptions {
	return CompileOptions{}
}

// Compile compiles an IR module to a binary bytecode module using default
// options.
func Compile(module *ir.Module) (*wasm.CompiledModule, error) {
	return CompileWithOptions(module, DefaultOptions())
}

// CompileWithOptions compiles an IR module with custom options.
func CompileWithOptions(module *ir.Module, opts CompileOptions) (*wasm.CompiledModule, error) {
	backend := wasm.New(wasm.Options{
		DebugStepping:      opts.DebugStepping,
		LegacyNameMatching: opts.LegacyNameMatching,
		Bindings:           opts.Bindings,
	})
	return backend.Compile(module)
}
