// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/gogpu/shadevm/ir"
)

// Indices of the persistent base-pointer globals, in declaration order.
const (
	globalAttributeBase uint32 = iota
	globalUniformBase
	globalVaryingBase
	globalPrivateBase
	globalTextureBase
	globalFrameSP

	numBaseGlobals
)

// Region identifies one of the five memory regions anchored by a base
// pointer global.
type Region uint8

const (
	RegionAttribute Region = iota
	RegionUniform
	RegionVarying
	RegionPrivate
	RegionTexture
)

// String returns the region name as used in diagnostics.
func (r Region) String() string {
	switch r {
	case RegionAttribute:
		return "attribute"
	case RegionUniform:
		return "uniform"
	case RegionVarying:
		return "varying"
	case RegionPrivate:
		return "private"
	case RegionTexture:
		return "texture"
	default:
		return "unknown"
	}
}

// globalIndex returns the base-pointer global anchoring the region.
func (r Region) globalIndex() uint32 {
	switch r {
	case RegionAttribute:
		return globalAttributeBase
	case RegionUniform:
		return globalUniformBase
	case RegionVarying:
		return globalVaryingBase
	case RegionPrivate:
		return globalPrivateBase
	default:
		return globalTextureBase
	}
}

// Fixed layout constants. Stage I/O values occupy 16-byte slots; the pinned
// area past the 256 regular slots holds builtins that have no location, and
// local variables are packed after it.
const (
	slotStride       = 16
	maxLocationSlots = 256

	pinnedOffset    = 0x1000 // depth, vertex/instance index, front-facing
	pinnedAuxOffset = 0x1004 // second pinned builtin of a region

	localBaseOffset = 0x1010

	regionCeiling = 0x10000

	// contextSlotSize is the byte size of one context-block entry.
	contextSlotSize = 4

	// largeLocalMemory triggers a warning, not an error.
	largeLocalMemory = 0x1000
)

// resourceSlot is the addressing decision for one global variable. Direct
// slots add Offset to the region base. Indirect slots name a context-block
// entry: code loads the entry and adds it to the region base, so the host
// can rebind resources without recompiling.
type resourceSlot struct {
	region   Region
	offset   uint32
	indirect bool
}

// regionComponent is one scalar of a stage I/O value: which region it lives
// in, its absolute byte offset there, and its scalar shape.
type regionComponent struct {
	region Region
	offset uint32
	kind   ir.ScalarKind
	width  uint8
}

// layoutPlan holds every addressing decision made before codegen, so
// lowering treats addressing as a pure lookup.
type layoutPlan struct {
	globals      []resourceSlot
	locals       [][]uint32 // absolute private-region offset per local
	entryInputs  map[ir.FunctionHandle][][]regionComponent
	entryOutputs map[ir.FunctionHandle][]regionComponent

	contextSlots  uint32
	attributeSize uint32
	varyingSize   uint32
	privateSize   uint32
}

// globalSlot returns the addressing decision for a global variable.
func (p *layoutPlan) globalSlot(h ir.GlobalVariableHandle) resourceSlot {
	return p.globals[h]
}

// localOffset returns the absolute private-region offset of a local.
func (p *layoutPlan) localOffset(fn ir.FunctionHandle, local uint32) uint32 {
	return p.locals[fn][local]
}

// planLayout assigns every global, local, and stage I/O value its byte
// offset. It fails on unresolvable bindings, overlapping assignments, and
// region overflow; it never falls back to a silent zero offset.
func planLayout(m *ir.Module, opts *Options, logger *slog.Logger) (*layoutPlan, error) {
	p := &layoutPlan{
		globals:      make([]resourceSlot, len(m.GlobalVariables)),
		locals:       make([][]uint32, len(m.Functions)),
		entryInputs:  make(map[ir.FunctionHandle][][]regionComponent),
		entryOutputs: make(map[ir.FunctionHandle][]regionComponent),
	}
	if err := p.planContextBlock(m, opts); err != nil {
		return nil, err
	}
	if err := p.planPrivate(m, logger); err != nil {
		return nil, err
	}
	for i := range m.EntryPoints {
		if err := p.planEntryIO(m, opts, logger, &m.EntryPoints[i]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// planContextBlock assigns uniform and handle globals their context-block
// slots, ordered by (group, binding) so the layout is stable across
// compiles of the same module.
func (p *layoutPlan) planContextBlock(m *ir.Module, opts *Options) error {
	type entry struct {
		handle         ir.GlobalVariableHandle
		group, binding uint32
	}
	var entries []entry

	for i := range m.GlobalVariables {
		g := &m.GlobalVariables[i]
		switch g.Space {
		case ir.SpaceUniform, ir.SpaceHandle:
		case ir.SpacePrivate:
			continue
		default:
			return Errorf(ErrUnsupportedFeature, "global %q: address space %s is not supported", g.Name, g.Space)
		}
		e := entry{handle: ir.GlobalVariableHandle(i)}
		switch {
		case g.Binding != nil:
			e.group, e.binding = g.Binding.Group, g.Binding.Binding
		case opts != nil && opts.Bindings.Uniforms != nil:
			loc, ok := opts.Bindings.Uniforms[g.Name]
			if !ok {
				return Errorf(ErrMissingBinding, "global %q has no binding and no entry in the uniform map", g.Name)
			}
			e.binding = loc
		default:
			return Errorf(ErrMissingBinding, "global %q has no resource binding", g.Name)
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(a, b int) bool {
		if entries[a].group != entries[b].group {
			return entries[a].group < entries[b].group
		}
		return entries[a].binding < entries[b].binding
	})

	for slot, e := range entries {
		g := &m.GlobalVariables[e.handle]
		region := RegionUniform
		if g.Space == ir.SpaceHandle {
			region = RegionTexture
		}
		p.globals[e.handle] = resourceSlot{
			region:   region,
			offset:   uint32(slot) * contextSlotSize,
			indirect: true,
		}
	}
	p.contextSlots = uint32(len(entries))
	return nil
}

// planPrivate packs private-space globals, then every function's locals,
// into the private region after the pinned output area. Each value gets its
// natural alignment. The region shares space with fragment color slots and
// the pinned depth offset, which localBaseOffset already clears.
func (p *layoutPlan) planPrivate(m *ir.Module, logger *slog.Logger) error {
	running := uint32(localBaseOffset)

	place := func(name string, t ir.TypeHandle) (uint32, error) {
		inner := m.Types[t].Inner
		size, err := typeSize(m, inner)
		if err != nil {
			return 0, err
		}
		align, aerr := typeAlign(m, inner)
		if aerr != nil {
			return 0, aerr
		}
		off := roundUp(running, align)
		running = off + size
		if running > regionCeiling {
			return 0, Errorf(ErrLayoutOverflow,
				"private region needs 0x%x bytes for %q, ceiling is 0x%x", running, name, regionCeiling)
		}
		return off, nil
	}

	for i := range m.GlobalVariables {
		g := &m.GlobalVariables[i]
		if g.Space != ir.SpacePrivate {
			continue
		}
		off, err := place(g.Name, g.Type)
		if err != nil {
			return err
		}
		p.globals[i] = resourceSlot{region: RegionPrivate, offset: off}
	}

	for fi := range m.Functions {
		fn := &m.Functions[fi]
		offsets := make([]uint32, len(fn.LocalVars))
		for li := range fn.LocalVars {
			off, err := place(fn.LocalVars[li].Name, fn.LocalVars[li].Type)
			if err != nil {
				return err
			}
			offsets[li] = off
		}
		p.locals[fi] = offsets
	}

	p.privateSize = running
	if running-localBaseOffset > largeLocalMemory {
		logger.Warn("large local-variable memory usage",
			"bytes", running-localBaseOffset)
	}
	return nil
}

// planEntryIO resolves every input and output of an entry point to region
// components, then checks the outputs for overlap.
func (p *layoutPlan) planEntryIO(m *ir.Module, opts *Options, logger *slog.Logger, ep *ir.EntryPoint) error {
	fn := &m.Functions[ep.Function]

	inputs := make([][]regionComponent, len(fn.Arguments))
	for i := range fn.Arguments {
		arg := &fn.Arguments[i]
		rcs, err := p.stageValue(m, opts, logger, ep.Stage, false, arg.Name, arg.Binding, arg.Type)
		if err != nil {
			return err
		}
		inputs[i] = rcs
	}
	p.entryInputs[ep.Function] = inputs

	var outputs []regionComponent
	if fn.Result != nil {
		rcs, err := p.stageValue(m, opts, logger, ep.Stage, true, fn.Name, fn.Result.Binding, fn.Result.Type)
		if err != nil {
			return err
		}
		outputs = rcs
	}
	p.entryOutputs[ep.Function] = outputs

	// Position and the implicit color slot stay reserved even when the
	// entry declares nothing at those offsets.
	p.reserve(RegionVarying, varySlotEnd(0))
	p.reserve(RegionPrivate, slotStride)

	return p.checkOverlap(ep.Name, outputs)
}

func varySlotEnd(off uint32) uint32 { return off + slotStride }

func (p *layoutPlan) reserve(r Region, size uint32) {
	switch r {
	case RegionAttribute:
		if size > p.attributeSize {
			p.attributeSize = size
		}
	case RegionVarying:
		if size > p.varyingSize {
			p.varyingSize = size
		}
	case RegionPrivate:
		if size > p.privateSize {
			p.privateSize = size
		}
	}
}

// stageValue resolves one bound value (an argument or result, possibly a
// struct of bound members) into region components.
func (p *layoutPlan) stageValue(m *ir.Module, opts *Options, logger *slog.Logger, stage ir.ShaderStage, output bool, name string, binding *ir.Binding, t ir.TypeHandle) ([]regionComponent, error) {
	inner := m.Types[t].Inner

	if st, ok := inner.(ir.StructType); ok && binding == nil {
		var rcs []regionComponent
		for i := range st.Members {
			member := &st.Members[i]
			sub, err := p.stageValue(m, opts, logger, stage, output, member.Name, member.Binding, member.Type)
			if err != nil {
				return nil, err
			}
			rcs = append(rcs, sub...)
		}
		return rcs, nil
	}

	region, base, err := p.resolveSlot(m, opts, logger, stage, output, name, binding, inner)
	if err != nil {
		return nil, err
	}
	comps, cerr := componentsOf(m, inner)
	if cerr != nil {
		return nil, cerr
	}
	rcs := make([]regionComponent, len(comps))
	for i, c := range comps {
		rcs[i] = regionComponent{region: region, offset: base + c.offset, kind: c.kind, width: c.width}
	}
	size, serr := typeSize(m, inner)
	if serr != nil {
		return nil, serr
	}
	if base < pinnedOffset {
		p.reserve(region, base+size)
	}
	return rcs, nil
}

// resolveSlot maps one bound value to its region and byte offset.
func (p *layoutPlan) resolveSlot(m *ir.Module, opts *Options, logger *slog.Logger, stage ir.ShaderStage, output bool, name string, binding *ir.Binding, inner ir.TypeInner) (Region, uint32, error) {
	b := p.effectiveBinding(opts, logger, stage, output, name, binding, inner)
	if b == nil {
		return 0, 0, Errorf(ErrMissingBinding,
			"%s %s value %q has no binding and no name-map entry", stage, stageDir(output), name)
	}

	switch bv := b.(type) {
	case ir.BuiltinBinding:
		return builtinSlot(stage, output, name, bv.Builtin)
	case ir.LocationBinding:
		return locationSlot(stage, output, name, bv.Location)
	default:
		return 0, 0, Errorf(ErrInternalError, "unknown binding kind %T on %q", b, name)
	}
}

func stageDir(output bool) string {
	if output {
		return "output"
	}
	return "input"
}

// effectiveBinding picks the binding to use: the explicit IR binding, the
// per-stage name map, an implicit slot for unbound vec4 results, or the
// legacy name heuristic when enabled.
func (p *layoutPlan) effectiveBinding(opts *Options, logger *slog.Logger, stage ir.ShaderStage, output bool, name string, binding *ir.Binding, inner ir.TypeInner) ir.Binding {
	if binding != nil {
		return *binding
	}

	if opts != nil {
		var table map[string]uint32
		switch {
		case stage == ir.StageVertex && !output:
			table = opts.Bindings.Attributes
		case stage == ir.StageVertex && output, stage == ir.StageFragment && !output:
			table = opts.Bindings.Varyings
		case stage == ir.StageFragment && output:
			table = opts.Bindings.Outputs
		}
		if loc, ok := table[name]; ok {
			return ir.LocationBinding{Location: loc}
		}
	}

	// An unbound vec4 f32 result takes the stage's canonical output: clip
	// position for vertex, color slot 0 for fragment.
	if output {
		if v, ok := inner.(ir.VectorType); ok && v.Size == ir.Vec4 && v.Scalar.Kind == ir.ScalarFloat {
			if stage == ir.StageVertex {
				return ir.BuiltinBinding{Builtin: ir.BuiltinPosition}
			}
			return ir.LocationBinding{Location: 0}
		}
	}

	if opts != nil && opts.LegacyNameMatching {
		if b := legacyNameBinding(stage, output, name); b != nil {
			logger.Warn("resolved binding by name heuristic",
				"name", name, "stage", stage.String())
			return b
		}
	}
	return nil
}

// legacyNameBinding is the compatibility shim for modules without binding
// metadata. It matches well-known substrings only; anything else stays
// unresolved.
func legacyNameBinding(stage ir.ShaderStage, output bool, name string) ir.Binding {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "position") || strings.Contains(n, "pos"):
		if stage == ir.StageVertex && output {
			return ir.BuiltinBinding{Builtin: ir.BuiltinPosition}
		}
	case strings.Contains(n, "color") || strings.Contains(n, "colour"):
		if stage == ir.StageFragment && output {
			return ir.LocationBinding{Location: 0}
		}
	case strings.Contains(n, "depth"):
		if stage == ir.StageFragment && output {
			return ir.BuiltinBinding{Builtin: ir.BuiltinFragDepth}
		}
	}
	return nil
}

// builtinSlot maps a pipeline builtin to its pinned offset.
func builtinSlot(stage ir.ShaderStage, output bool, name string, b ir.BuiltinValue) (Region, uint32, error) {
	switch {
	case b == ir.BuiltinPosition && stage == ir.StageVertex && output,
		b == ir.BuiltinPosition && stage == ir.StageFragment && !output:
		return RegionVarying, 0, nil
	case b == ir.BuiltinPointSize && stage == ir.StageVertex && output:
		return RegionVarying, slotStride, nil
	case b == ir.BuiltinFragDepth && stage == ir.StageFragment && output:
		return RegionPrivate, pinnedOffset, nil
	case b == ir.BuiltinVertexIndex && stage == ir.StageVertex && !output:
		return RegionAttribute, pinnedOffset, nil
	case b == ir.BuiltinInstanceIndex && stage == ir.StageVertex && !output:
		return RegionAttribute, pinnedAuxOffset, nil
	case b == ir.BuiltinFrontFacing && stage == ir.StageFragment && !output:
		return RegionVarying, pinnedOffset, nil
	case b == ir.BuiltinSampleIndex && stage == ir.StageFragment && !output:
		return RegionVarying, pinnedAuxOffset, nil
	}
	return 0, 0, Errorf(ErrUnsupportedFeature,
		"builtin on %q is not available as a %s %s value", name, stage, stageDir(output))
}

// locationSlot maps a numbered location to its region offset. Varying slot
// 0 is reserved for position, so location n lands at (n+1)*16 there; color
// outputs use n*16 in the private region; attributes use n*16.
func locationSlot(stage ir.ShaderStage, output bool, name string, loc uint32) (Region, uint32, error) {
	switch {
	case stage == ir.StageVertex && !output:
		if loc >= maxLocationSlots {
			return 0, 0, locationRangeErr(name, loc, maxLocationSlots-1)
		}
		return RegionAttribute, loc * slotStride, nil
	case stage == ir.StageVertex && output, stage == ir.StageFragment && !output:
		// (n+1)*16 must stay below the pinned area.
		if loc >= maxLocationSlots-1 {
			return 0, 0, locationRangeErr(name, loc, maxLocationSlots-2)
		}
		return RegionVarying, (loc + 1) * slotStride, nil
	case stage == ir.StageFragment && output:
		if loc >= maxLocationSlots {
			return 0, 0, locationRangeErr(name, loc, maxLocationSlots-1)
		}
		return RegionPrivate, loc * slotStride, nil
	}
	return 0, 0, Errorf(ErrUnsupportedFeature,
		"location binding on %q is not available as a %s %s value", name, stage, stageDir(output))
}

func locationRangeErr(name string, loc, max uint32) error {
	return Errorf(ErrLayoutOverflow, "location %d on %q exceeds the maximum %d", loc, name, max)
}

// checkOverlap rejects entry outputs whose byte ranges collide, such as a
// point-size output alongside a location-0 varying.
func (p *layoutPlan) checkOverlap(entry string, outputs []regionComponent) error {
	type interval struct {
		region     Region
		start, end uint32
	}
	var seen []interval
	for _, rc := range outputs {
		iv := interval{region: rc.region, start: rc.offset, end: rc.offset + uint32(rc.width)}
		for _, other := range seen {
			if iv.region == other.region && iv.start < other.end && other.start < iv.end {
				return Errorf(ErrLayoutConflict,
					"entry %q assigns overlapping %s offsets 0x%x and 0x%x", entry, iv.region, other.start, iv.start)
			}
		}
		seen = append(seen, iv)
	}
	return nil
}
