// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/shadevm/ir"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestBuiltinSlot(t *testing.T) {
	tests := []struct {
		name    string
		stage   ir.ShaderStage
		output  bool
		builtin ir.BuiltinValue
		region  Region
		offset  uint32
	}{
		{"position out", ir.StageVertex, true, ir.BuiltinPosition, RegionVarying, 0},
		{"position in", ir.StageFragment, false, ir.BuiltinPosition, RegionVarying, 0},
		{"point size", ir.StageVertex, true, ir.BuiltinPointSize, RegionVarying, 16},
		{"frag depth", ir.StageFragment, true, ir.BuiltinFragDepth, RegionPrivate, 0x1000},
		{"vertex index", ir.StageVertex, false, ir.BuiltinVertexIndex, RegionAttribute, 0x1000},
		{"instance index", ir.StageVertex, false, ir.BuiltinInstanceIndex, RegionAttribute, 0x1004},
		{"front facing", ir.StageFragment, false, ir.BuiltinFrontFacing, RegionVarying, 0x1000},
		{"sample index", ir.StageFragment, false, ir.BuiltinSampleIndex, RegionVarying, 0x1004},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, offset, err := builtinSlot(tt.stage, tt.output, "v", tt.builtin)
			if err != nil {
				t.Fatalf("builtinSlot() error = %v", err)
			}
			if region != tt.region || offset != tt.offset {
				t.Errorf("slot = (%s, 0x%x), want (%s, 0x%x)", region, offset, tt.region, tt.offset)
			}
		})
	}
}

func TestBuiltinSlot_WrongStage(t *testing.T) {
	// Point size is a vertex output only.
	_, _, err := builtinSlot(ir.StageFragment, true, "ps", ir.BuiltinPointSize)
	if err == nil {
		t.Fatal("expected error for point size as fragment output")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || !wasmErr.IsUnsupportedFeature() {
		t.Errorf("error = %v, want ErrUnsupportedFeature", err)
	}
}

func TestLocationSlot(t *testing.T) {
	tests := []struct {
		name   string
		stage  ir.ShaderStage
		output bool
		loc    uint32
		region Region
		offset uint32
	}{
		{"attribute 0", ir.StageVertex, false, 0, RegionAttribute, 0},
		{"attribute 3", ir.StageVertex, false, 3, RegionAttribute, 48},
		{"varying 0 skips position", ir.StageVertex, true, 0, RegionVarying, 16},
		{"varying in", ir.StageFragment, false, 2, RegionVarying, 48},
		{"last varying", ir.StageVertex, true, 254, RegionVarying, 255 * 16},
		{"color 0", ir.StageFragment, true, 0, RegionPrivate, 0},
		{"color 2", ir.StageFragment, true, 2, RegionPrivate, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, offset, err := locationSlot(tt.stage, tt.output, "v", tt.loc)
			if err != nil {
				t.Fatalf("locationSlot() error = %v", err)
			}
			if region != tt.region || offset != tt.offset {
				t.Errorf("slot = (%s, 0x%x), want (%s, 0x%x)", region, offset, tt.region, tt.offset)
			}
		})
	}
}

func TestLocationSlot_Overflow(t *testing.T) {
	// Varying location 255 would land on the pinned area.
	_, _, err := locationSlot(ir.StageVertex, true, "v", 255)
	if err == nil {
		t.Fatal("expected overflow error for varying location 255")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || wasmErr.Kind != ErrLayoutOverflow {
		t.Errorf("error = %v, want ErrLayoutOverflow", err)
	}

	if _, _, err := locationSlot(ir.StageFragment, true, "c", 255); err != nil {
		t.Errorf("color location 255 should fit, got %v", err)
	}
	if _, _, err := locationSlot(ir.StageFragment, true, "c", 256); err == nil {
		t.Error("expected overflow error for color location 256")
	}
}

func TestPlanLayout_ContextBlockOrder(t *testing.T) {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	tex := reg.GetOrCreate("texture_2d<f32>", ir.ImageType{Dim: ir.Dim2D, Class: ir.ImageClassSampled})

	m := &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{
			{Name: "c", Space: ir.SpaceUniform, Binding: &ir.ResourceBinding{Group: 1, Binding: 0}, Type: f32},
			{Name: "t", Space: ir.SpaceHandle, Binding: &ir.ResourceBinding{Group: 0, Binding: 5}, Type: tex},
			{Name: "a", Space: ir.SpaceUniform, Binding: &ir.ResourceBinding{Group: 0, Binding: 1}, Type: f32},
		},
	}

	plan, err := planLayout(m, &Options{}, discardLogger())
	if err != nil {
		t.Fatalf("planLayout() error = %v", err)
	}

	// Sorted by (group, binding): a, t, c.
	wantSlots := []resourceSlot{
		{region: RegionUniform, offset: 8, indirect: true}, // c: (1,0)
		{region: RegionTexture, offset: 4, indirect: true}, // t: (0,5)
		{region: RegionUniform, offset: 0, indirect: true}, // a: (0,1)
	}
	for i, want := range wantSlots {
		got := plan.globalSlot(ir.GlobalVariableHandle(i))
		if got != want {
			t.Errorf("global %d slot = %+v, want %+v", i, got, want)
		}
	}
	if plan.contextSlots != 3 {
		t.Errorf("contextSlots = %d, want 3", plan.contextSlots)
	}
}

func TestPlanLayout_MissingBinding(t *testing.T) {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	m := &ir.Module{
		Types:           reg.Types(),
		GlobalVariables: []ir.GlobalVariable{{Name: "time", Space: ir.SpaceUniform, Type: f32}},
	}

	_, err := planLayout(m, &Options{}, discardLogger())
	if err == nil {
		t.Fatal("expected error for unbound uniform")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || wasmErr.Kind != ErrMissingBinding {
		t.Errorf("error = %v, want ErrMissingBinding", err)
	}

	// A uniform name map substitutes for the missing binding.
	opts := &Options{Bindings: Bindings{Uniforms: map[string]uint32{"time": 0}}}
	plan, err := planLayout(m, opts, discardLogger())
	if err != nil {
		t.Fatalf("planLayout() with uniform map error = %v", err)
	}
	if slot := plan.globalSlot(0); !slot.indirect || slot.region != RegionUniform {
		t.Errorf("slot = %+v, want indirect uniform", slot)
	}
}

func TestPlanLayout_StorageRejected(t *testing.T) {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	m := &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{
			{Name: "buf", Space: ir.SpaceStorage, Binding: &ir.ResourceBinding{}, Type: f32},
		},
	}

	_, err := planLayout(m, &Options{}, discardLogger())
	if err == nil {
		t.Fatal("expected error for storage global")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || !wasmErr.IsUnsupportedFeature() {
		t.Errorf("error = %v, want ErrUnsupportedFeature", err)
	}
}

func TestPlanLayout_PrivatePacking(t *testing.T) {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	vec4 := reg.GetOrCreate("vec4<f32>", ir.VectorType{
		Size: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})

	m := &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{
			{Name: "acc", Space: ir.SpacePrivate, Type: f32},
		},
		Functions: []ir.Function{{
			Name: "f",
			LocalVars: []ir.LocalVariable{
				{Name: "tmp", Type: vec4},
				{Name: "i", Type: f32},
			},
		}},
	}

	plan, err := planLayout(m, &Options{}, discardLogger())
	if err != nil {
		t.Fatalf("planLayout() error = %v", err)
	}

	if slot := plan.globalSlot(0); slot.region != RegionPrivate || slot.offset != localBaseOffset {
		t.Errorf("private global slot = %+v, want offset 0x%x", slot, localBaseOffset)
	}
	if off := plan.localOffset(0, 0); off != localBaseOffset+4 {
		t.Errorf("local 0 offset = 0x%x, want 0x%x", off, localBaseOffset+4)
	}
	if off := plan.localOffset(0, 1); off != localBaseOffset+20 {
		t.Errorf("local 1 offset = 0x%x, want 0x%x", off, localBaseOffset+20)
	}
}

func TestPlanLayout_PrivateCeiling(t *testing.T) {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	count := uint32(20000)
	big := reg.GetOrCreate("", ir.ArrayType{Base: f32, Size: ir.ArraySize{Constant: &count}, Stride: 4})

	m := &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{
			{Name: "scratch", Space: ir.SpacePrivate, Type: big},
		},
	}

	_, err := planLayout(m, &Options{}, discardLogger())
	if err == nil {
		t.Fatal("expected error for an 80000-byte private region")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || wasmErr.Kind != ErrLayoutOverflow {
		t.Errorf("error = %v, want ErrLayoutOverflow", err)
	}
}

func TestPlanLayout_LargePrivateWarning(t *testing.T) {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	count := uint32(2000)
	arr := reg.GetOrCreate("", ir.ArrayType{Base: f32, Size: ir.ArraySize{Constant: &count}, Stride: 4})

	// 8000 bytes fits the region but crosses the warning threshold.
	m := &ir.Module{
		Types: reg.Types(),
		Functions: []ir.Function{{
			Name:      "f",
			LocalVars: []ir.LocalVariable{{Name: "scratch", Type: arr}},
		}},
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	if _, err := planLayout(m, &Options{}, logger); err != nil {
		t.Fatalf("planLayout() error = %v", err)
	}
	if !strings.Contains(buf.String(), "large local-variable memory") {
		t.Errorf("log output = %q, want a large-memory warning", buf.String())
	}
}

func TestPlanLayout_EntryIO(t *testing.T) {
	reg := ir.NewTypeRegistry()
	vec4 := reg.GetOrCreate("vec4<f32>", ir.VectorType{
		Size: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})
	posBinding := ir.Binding(ir.BuiltinBinding{Builtin: ir.BuiltinPosition})
	locBinding := ir.Binding(ir.LocationBinding{Location: 2})

	m := &ir.Module{
		Types: reg.Types(),
		Functions: []ir.Function{{
			Name: "vertex_main",
			Arguments: []ir.FunctionArgument{
				{Name: "position", Type: vec4, Binding: &locBinding},
			},
			Result: &ir.FunctionResult{Type: vec4, Binding: &posBinding},
		}},
		EntryPoints: []ir.EntryPoint{{Name: "vertex_main", Stage: ir.StageVertex, Function: 0}},
	}

	plan, err := planLayout(m, &Options{}, discardLogger())
	if err != nil {
		t.Fatalf("planLayout() error = %v", err)
	}

	inputs := plan.entryInputs[0]
	if len(inputs) != 1 || len(inputs[0]) != 4 {
		t.Fatalf("inputs = %v, want one vec4", inputs)
	}
	for i, rc := range inputs[0] {
		wantOff := uint32(2*slotStride + i*4)
		if rc.region != RegionAttribute || rc.offset != wantOff {
			t.Errorf("input comp %d = (%s, 0x%x), want (attribute, 0x%x)", i, rc.region, rc.offset, wantOff)
		}
	}

	outputs := plan.entryOutputs[0]
	if len(outputs) != 4 {
		t.Fatalf("outputs = %v, want 4 components", outputs)
	}
	for i, rc := range outputs {
		if rc.region != RegionVarying || rc.offset != uint32(i*4) {
			t.Errorf("output comp %d = (%s, 0x%x), want (varying, 0x%x)", i, rc.region, rc.offset, i*4)
		}
	}

	if plan.attributeSize != 3*slotStride {
		t.Errorf("attributeSize = %d, want %d", plan.attributeSize, 3*slotStride)
	}
	// Position slot stays reserved whether or not the entry writes more.
	if plan.varyingSize < slotStride {
		t.Errorf("varyingSize = %d, want at least %d", plan.varyingSize, slotStride)
	}
}

func TestPlanLayout_ImplicitResultBinding(t *testing.T) {
	reg := ir.NewTypeRegistry()
	vec4 := reg.GetOrCreate("vec4<f32>", ir.VectorType{
		Size: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})

	build := func(stage ir.ShaderStage) *ir.Module {
		return &ir.Module{
			Types: reg.Types(),
			Functions: []ir.Function{{
				Name:   "main",
				Result: &ir.FunctionResult{Type: vec4},
			}},
			EntryPoints: []ir.EntryPoint{{Name: "main", Stage: stage, Function: 0}},
		}
	}

	// Unbound vec4 vertex result takes the position slot.
	plan, err := planLayout(build(ir.StageVertex), &Options{}, discardLogger())
	if err != nil {
		t.Fatalf("vertex planLayout() error = %v", err)
	}
	if out := plan.entryOutputs[0]; out[0].region != RegionVarying || out[0].offset != 0 {
		t.Errorf("vertex implicit output = (%s, 0x%x), want (varying, 0)", out[0].region, out[0].offset)
	}

	// Unbound vec4 fragment result takes color slot 0.
	plan, err = planLayout(build(ir.StageFragment), &Options{}, discardLogger())
	if err != nil {
		t.Fatalf("fragment planLayout() error = %v", err)
	}
	if out := plan.entryOutputs[0]; out[0].region != RegionPrivate || out[0].offset != 0 {
		t.Errorf("fragment implicit output = (%s, 0x%x), want (private, 0)", out[0].region, out[0].offset)
	}
}

func TestPlanLayout_OutputConflict(t *testing.T) {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	psBinding := ir.Binding(ir.BuiltinBinding{Builtin: ir.BuiltinPointSize})
	locBinding := ir.Binding(ir.LocationBinding{Location: 0})

	// Point size and varying location 0 both claim varying offset 16.
	out := reg.GetOrCreate("Out", ir.StructType{
		Members: []ir.StructMember{
			{Name: "size", Type: f32, Binding: &psBinding, Offset: 0},
			{Name: "fog", Type: f32, Binding: &locBinding, Offset: 4},
		},
		Span: 8,
	})

	m := &ir.Module{
		Types: reg.Types(),
		Functions: []ir.Function{{
			Name:   "vertex_main",
			Result: &ir.FunctionResult{Type: out},
		}},
		EntryPoints: []ir.EntryPoint{{Name: "vertex_main", Stage: ir.StageVertex, Function: 0}},
	}

	_, err := planLayout(m, &Options{}, discardLogger())
	if err == nil {
		t.Fatal("expected conflict error")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || wasmErr.Kind != ErrLayoutConflict {
		t.Errorf("error = %v, want ErrLayoutConflict", err)
	}
}

func TestLegacyNameBinding(t *testing.T) {
	tests := []struct {
		name   string
		stage  ir.ShaderStage
		output bool
		value  string
		want   ir.Binding
	}{
		{"vertex position", ir.StageVertex, true, "outPosition", ir.BuiltinBinding{Builtin: ir.BuiltinPosition}},
		{"fragment color", ir.StageFragment, true, "fragColor", ir.LocationBinding{Location: 0}},
		{"fragment colour", ir.StageFragment, true, "outColour", ir.LocationBinding{Location: 0}},
		{"fragment depth", ir.StageFragment, true, "gl_FragDepth", ir.BuiltinBinding{Builtin: ir.BuiltinFragDepth}},
		{"no match", ir.StageVertex, true, "weight", nil},
		{"wrong stage", ir.StageFragment, true, "position", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := legacyNameBinding(tt.stage, tt.output, tt.value)
			if got != tt.want {
				t.Errorf("legacyNameBinding(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
