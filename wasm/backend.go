// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"log/slog"

	"github.com/gogpu/shadevm/ir"
)

// Bindings supplies per-stage name-to-location maps for modules whose IR
// carries no explicit binding metadata.
type Bindings struct {
	// Attributes maps vertex input names to attribute locations.
	Attributes map[string]uint32

	// Varyings maps vertex output / fragment input names to varying
	// locations.
	Varyings map[string]uint32

	// Outputs maps fragment output names to color slots.
	Outputs map[string]uint32

	// Uniforms maps unbound uniform and handle globals to binding numbers
	// in group 0.
	Uniforms map[string]uint32
}

// Options configures the backend.
type Options struct {
	// DebugStepping inserts a host callback before every statement and
	// exports internal functions under fn$-prefixed names.
	DebugStepping bool

	// Optimize is accepted for forward compatibility and currently inert.
	Optimize bool

	// Features lists target-feature flags. Accepted and currently inert.
	Features []string

	// LegacyNameMatching enables the substring heuristic for stage values
	// without bindings. Every match is logged as a warning; prefer explicit
	// bindings or the Bindings maps.
	LegacyNameMatching bool

	// Bindings resolves names when the IR has no binding metadata.
	Bindings Bindings

	// Logger receives warnings and compile statistics. Discarded when nil.
	Logger *slog.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{}
}

// RegionSizes reports how many bytes of each memory region the compiled
// module touches, for the host to size its allocations.
type RegionSizes struct {
	Attribute uint32
	Uniform   uint32
	Varying   uint32
	Private   uint32
}

// CompiledModule is the immutable result of one compile call.
type CompiledModule struct {
	// Bytes is the encoded binary module.
	Bytes []byte

	// EntryPoints maps entry-point names to function indices.
	EntryPoints map[string]uint32

	// Regions reports the per-region memory footprint.
	Regions RegionSizes
}

// Backend compiles IR modules to binary WebAssembly. A Backend is cheap
// and stateless across calls; every Compile builds its working state
// fresh from the module snapshot.
type Backend struct {
	opts Options
}

// New creates a backend with the given options.
func New(opts Options) *Backend {
	return &Backend{opts: opts}
}

// Compile lowers a module and returns the encoded result. The first error
// aborts the whole call; there is no partial output.
func (b *Backend) Compile(m *ir.Module) (*CompiledModule, error) {
	if m == nil {
		return nil, NewError(ErrInternalError, "nil module")
	}
	logger := b.opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &compiler{
		m:           m,
		opts:        &b.opts,
		logger:      logger,
		builder:     newModuleBuilder(),
		abis:        make([]*FunctionABI, len(m.Functions)),
		funcIndex:   make([]uint32, len(m.Functions)),
		entryOf:     make(map[ir.FunctionHandle]*ir.EntryPoint),
		mathImports: make(map[ir.MathFunction]uint32),
	}
	return c.compile()
}

// compiler owns all mutable compile state for exactly one call.
type compiler struct {
	m      *ir.Module
	opts   *Options
	logger *slog.Logger

	plan    *layoutPlan
	builder *moduleBuilder

	abis      []*FunctionABI
	funcIndex []uint32
	entryOf   map[ir.FunctionHandle]*ir.EntryPoint

	mathImports  map[ir.MathFunction]uint32
	debugStepIdx uint32
	hasDebugStep bool

	texHelperIdx [numTexHelpers]uint32
	texHelperSet [numTexHelpers]bool

	stepCounter uint32
}

func (c *compiler) compile() (*CompiledModule, error) {
	if err := c.checkEntryPoints(); err != nil {
		return nil, err
	}

	plan, err := planLayout(c.m, c.opts, c.logger)
	if err != nil {
		return nil, err
	}
	c.plan = plan

	c.builder.importMemory(16)
	if err := c.registerImports(); err != nil {
		return nil, err
	}
	if err := c.declareFunctions(); err != nil {
		return nil, err
	}

	for h := range c.m.Functions {
		fc := newFuncCompiler(c, ir.FunctionHandle(h), c.entryOf[ir.FunctionHandle(h)])
		if err := fc.compile(); err != nil {
			return nil, err
		}
	}

	bytes, err := c.builder.build()
	if err != nil {
		return nil, err
	}

	entries := make(map[string]uint32, len(c.m.EntryPoints))
	for i := range c.m.EntryPoints {
		ep := &c.m.EntryPoints[i]
		entries[ep.Name] = c.funcIndex[ep.Function]
	}

	c.logger.Info("compiled module",
		"bytes", len(bytes),
		"entry_points", len(entries),
		"functions", len(c.m.Functions))

	return &CompiledModule{
		Bytes:       bytes,
		EntryPoints: entries,
		Regions: RegionSizes{
			Attribute: c.plan.attributeSize,
			Uniform:   c.plan.contextSlots * contextSlotSize,
			Varying:   c.plan.varyingSize,
			Private:   c.plan.privateSize,
		},
	}, nil
}

func (c *compiler) checkEntryPoints() error {
	seenName := make(map[string]bool)
	for i := range c.m.EntryPoints {
		ep := &c.m.EntryPoints[i]
		if ep.Stage == ir.StageCompute {
			return Errorf(ErrUnsupportedFeature, "entry %q: compute stage is not supported", ep.Name)
		}
		if seenName[ep.Name] {
			return Errorf(ErrInvalidModule, "duplicate entry-point name %q", ep.Name)
		}
		seenName[ep.Name] = true
		if int(ep.Function) >= len(c.m.Functions) {
			return Errorf(ErrInvalidModule, "entry %q references function %d of %d", ep.Name, ep.Function, len(c.m.Functions))
		}
		if c.entryOf[ep.Function] != nil {
			return Errorf(ErrInvalidModule, "function %q serves two entry points", c.m.Functions[ep.Function].Name)
		}
		c.entryOf[ep.Function] = ep
	}
	return nil
}

// registerImports walks the module up front for everything that must live
// in the import section, which precedes all module functions in the index
// space: the optional debug hook and every transcendental the code uses.
func (c *compiler) registerImports() error {
	if c.opts.DebugStepping {
		idx, err := c.builder.importFunc("env", "debug_step", []ValType{ValI32}, nil)
		if err != nil {
			return err
		}
		c.debugStepIdx = idx
		c.hasDebugStep = true
	}

	for fi := range c.m.Functions {
		fn := &c.m.Functions[fi]
		for ei := range fn.Expressions {
			math, ok := fn.Expressions[ei].Kind.(ir.ExprMath)
			if !ok {
				continue
			}
			name, imported := mathImportName[math.Fun]
			if !imported {
				continue
			}
			if _, done := c.mathImports[math.Fun]; done {
				continue
			}
			params := []ValType{ValF32}
			if math.Fun == ir.MathAtan2 || math.Fun == ir.MathPow {
				params = []ValType{ValF32, ValF32}
			}
			idx, err := c.builder.importFunc("env", name, params, []ValType{ValF32})
			if err != nil {
				return err
			}
			c.mathImports[math.Fun] = idx
		}
	}
	return nil
}

// requireMathImport returns the import index registered for a
// transcendental function.
func (c *compiler) requireMathImport(fun ir.MathFunction, name string) (uint32, error) {
	idx, ok := c.mathImports[fun]
	if !ok {
		return 0, Errorf(ErrInternalError, "math import %q was not registered", name)
	}
	return idx, nil
}

// declareFunctions fixes the index of every IR function before any body is
// lowered, classifies internal calling conventions, declares the six base
// pointer globals, and emits the exports.
func (c *compiler) declareFunctions() error {
	for g := uint32(0); g < numBaseGlobals; g++ {
		c.builder.addGlobal(ValI32, true, 0)
	}

	for fi := range c.m.Functions {
		h := ir.FunctionHandle(fi)
		fn := &c.m.Functions[fi]

		var params, results []ValType
		if c.entryOf[h] != nil {
			params = []ValType{ValI32, ValI32, ValI32, ValI32, ValI32, ValI32}
		} else {
			abi, err := ClassifyFunction(c.m, fn)
			if err != nil {
				return err
			}
			c.abis[fi] = abi
			params = abi.ParamValTypes()
			results = abi.ResultValTypes()
		}

		idx, err := c.builder.declareFunc(params, results)
		if err != nil {
			return err
		}
		c.funcIndex[fi] = idx

		if ep := c.entryOf[h]; ep != nil {
			c.builder.addExport(ep.Name, idx)
		} else if c.opts.DebugStepping {
			c.builder.addExport("fn$"+fn.Name, idx)
		}
	}
	return nil
}
