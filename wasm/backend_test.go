// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/shadevm/ir"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// vertexPassthrough builds the smallest useful vertex module: one vec4
// attribute copied straight to the position output.
func vertexPassthrough() *ir.Module {
	reg := ir.NewTypeRegistry()
	vec4 := reg.GetOrCreate("vec4<f32>", ir.VectorType{
		Size: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})
	locBinding := ir.Binding(ir.LocationBinding{Location: 0})
	posBinding := ir.Binding(ir.BuiltinBinding{Builtin: ir.BuiltinPosition})

	pos := ir.ExpressionHandle(0)
	return &ir.Module{
		Types: reg.Types(),
		Functions: []ir.Function{{
			Name: "vertex_main",
			Arguments: []ir.FunctionArgument{
				{Name: "position", Type: vec4, Binding: &locBinding},
			},
			Result: &ir.FunctionResult{Type: vec4, Binding: &posBinding},
			Expressions: []ir.Expression{
				{Kind: ir.ExprFunctionArgument{Index: 0}},
			},
			Body: ir.Block{{Kind: ir.StmtReturn{Value: &pos}}},
		}},
		EntryPoints: []ir.EntryPoint{{Name: "vertex_main", Stage: ir.StageVertex, Function: 0}},
	}
}

func TestCompile_NilModule(t *testing.T) {
	_, err := New(Options{}).Compile(nil)
	if err == nil {
		t.Fatal("expected error for nil module")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || !wasmErr.IsInternalError() {
		t.Errorf("error = %v, want ErrInternalError", err)
	}
}

func TestCompile_EmptyModule(t *testing.T) {
	out, err := New(Options{}).Compile(&ir.Module{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !bytes.HasPrefix(out.Bytes, wasmMagic) {
		t.Errorf("module prefix = % x, want % x", out.Bytes[:8], wasmMagic)
	}
	if len(out.EntryPoints) != 0 {
		t.Errorf("EntryPoints = %v, want none", out.EntryPoints)
	}
}

func TestCompile_VertexPassthrough(t *testing.T) {
	out, err := New(Options{}).Compile(vertexPassthrough())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if !bytes.HasPrefix(out.Bytes, wasmMagic) {
		t.Fatalf("module prefix = % x, want % x", out.Bytes[:8], wasmMagic)
	}
	if idx, ok := out.EntryPoints["vertex_main"]; !ok || idx != 0 {
		t.Errorf("EntryPoints = %v, want vertex_main at 0", out.EntryPoints)
	}
	if !bytes.Contains(out.Bytes, []byte("vertex_main")) {
		t.Error("entry export name missing from encoded module")
	}

	if out.Regions.Attribute != 16 {
		t.Errorf("attribute region = %d, want 16", out.Regions.Attribute)
	}
	if out.Regions.Varying < 16 {
		t.Errorf("varying region = %d, want at least 16", out.Regions.Varying)
	}
	if out.Regions.Uniform != 0 {
		t.Errorf("uniform region = %d, want 0 without resources", out.Regions.Uniform)
	}
}

func TestCompile_DebugStepping(t *testing.T) {
	out, err := New(Options{DebugStepping: true}).Compile(vertexPassthrough())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	// The debug hook import occupies function index 0, shifting the entry.
	if idx := out.EntryPoints["vertex_main"]; idx != 1 {
		t.Errorf("entry index = %d, want 1 after debug import", idx)
	}
	if !bytes.Contains(out.Bytes, []byte("debug_step")) {
		t.Error("debug_step import missing from encoded module")
	}
}

func TestCompile_MatrixUniform(t *testing.T) {
	reg := ir.NewTypeRegistry()
	vec4 := reg.GetOrCreate("vec4<f32>", ir.VectorType{
		Size: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})
	mat4 := reg.GetOrCreate("mat4x4<f32>", ir.MatrixType{
		Columns: ir.Vec4, Rows: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})
	locBinding := ir.Binding(ir.LocationBinding{Location: 0})
	posBinding := ir.Binding(ir.BuiltinBinding{Builtin: ir.BuiltinPosition})

	out3 := ir.ExpressionHandle(3)
	m := &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{{
			Name:    "mvp",
			Space:   ir.SpaceUniform,
			Binding: &ir.ResourceBinding{Group: 0, Binding: 0},
			Type:    mat4,
		}},
		Functions: []ir.Function{{
			Name: "vertex_main",
			Arguments: []ir.FunctionArgument{
				{Name: "position", Type: vec4, Binding: &locBinding},
			},
			Result: &ir.FunctionResult{Type: vec4, Binding: &posBinding},
			Expressions: []ir.Expression{
				{Kind: ir.ExprGlobalVariable{Variable: 0}},
				{Kind: ir.ExprLoad{Pointer: 0}},
				{Kind: ir.ExprFunctionArgument{Index: 0}},
				{Kind: ir.ExprBinary{Op: ir.BinaryMultiply, Left: 1, Right: 2}},
			},
			Body: ir.Block{{Kind: ir.StmtReturn{Value: &out3}}},
		}},
		EntryPoints: []ir.EntryPoint{{Name: "vertex_main", Stage: ir.StageVertex, Function: 0}},
	}

	out, err := New(Options{}).Compile(m)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if out.Regions.Uniform != contextSlotSize {
		t.Errorf("uniform region = %d, want one context slot", out.Regions.Uniform)
	}
}

func TestCompile_MathImport(t *testing.T) {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	locBinding := ir.Binding(ir.LocationBinding{Location: 0})

	out2 := ir.ExpressionHandle(2)
	m := &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{{
			Name:    "time",
			Space:   ir.SpaceUniform,
			Binding: &ir.ResourceBinding{Group: 0, Binding: 0},
			Type:    f32,
		}},
		Functions: []ir.Function{{
			Name:   "fragment_main",
			Result: &ir.FunctionResult{Type: f32, Binding: &locBinding},
			Expressions: []ir.Expression{
				{Kind: ir.ExprGlobalVariable{Variable: 0}},
				{Kind: ir.ExprLoad{Pointer: 0}},
				{Kind: ir.ExprMath{Fun: ir.MathSin, Arg: 1}},
			},
			Body: ir.Block{{Kind: ir.StmtReturn{Value: &out2}}},
		}},
		EntryPoints: []ir.EntryPoint{{Name: "fragment_main", Stage: ir.StageFragment, Function: 0}},
	}

	out, err := New(Options{}).Compile(m)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !bytes.Contains(out.Bytes, []byte("sin")) {
		t.Error("sin import missing from encoded module")
	}
	// The import shifts the entry past index 0.
	if idx := out.EntryPoints["fragment_main"]; idx != 1 {
		t.Errorf("entry index = %d, want 1 after sin import", idx)
	}
}

func TestCompile_InternalCall(t *testing.T) {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	vec4 := reg.GetOrCreate("vec4<f32>", ir.VectorType{
		Size: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})
	locBinding := ir.Binding(ir.LocationBinding{Location: 0})

	// fn double(t: f32) -> f32 { return t + t; }
	helperRet := ir.ExpressionHandle(1)
	helper := ir.Function{
		Name:      "double",
		Arguments: []ir.FunctionArgument{{Name: "t", Type: f32}},
		Result:    &ir.FunctionResult{Type: f32},
		Expressions: []ir.Expression{
			{Kind: ir.ExprFunctionArgument{Index: 0}},
			{Kind: ir.ExprBinary{Op: ir.BinaryAdd, Left: 0, Right: 0}},
		},
		Body: ir.Block{{Kind: ir.StmtReturn{Value: &helperRet}}},
	}

	callResult := ir.ExpressionHandle(2)
	entryRet := ir.ExpressionHandle(4)
	entry := ir.Function{
		Name:   "fragment_main",
		Result: &ir.FunctionResult{Type: vec4, Binding: &locBinding},
		Expressions: []ir.Expression{
			{Kind: ir.ExprGlobalVariable{Variable: 0}},
			{Kind: ir.ExprLoad{Pointer: 0}},
			{Kind: ir.ExprCallResult{Function: 0}},
			{Kind: ir.Literal{Value: ir.LiteralF32(1)}},
			{Kind: ir.ExprCompose{Type: vec4, Components: []ir.ExpressionHandle{2, 2, 2, 3}}},
		},
		Body: ir.Block{
			{Kind: ir.StmtCall{Function: 0, Arguments: []ir.ExpressionHandle{1}, Result: &callResult}},
			{Kind: ir.StmtReturn{Value: &entryRet}},
		},
	}

	m := &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{{
			Name:    "intensity",
			Space:   ir.SpaceUniform,
			Binding: &ir.ResourceBinding{Group: 0, Binding: 0},
			Type:    f32,
		}},
		Functions:   []ir.Function{helper, entry},
		EntryPoints: []ir.EntryPoint{{Name: "fragment_main", Stage: ir.StageFragment, Function: 1}},
	}

	out, err := New(Options{}).Compile(m)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if idx := out.EntryPoints["fragment_main"]; idx != 1 {
		t.Errorf("entry index = %d, want 1", idx)
	}
	// Internal functions are not exported outside debug mode.
	if bytes.Contains(out.Bytes, []byte("fn$double")) {
		t.Error("internal function exported without debug stepping")
	}

	debug, err := New(Options{DebugStepping: true}).Compile(m)
	if err != nil {
		t.Fatalf("Compile() with debug error = %v", err)
	}
	if !bytes.Contains(debug.Bytes, []byte("fn$double")) {
		t.Error("fn$double export missing in debug mode")
	}
}

func TestCompile_CallToEntryFunction(t *testing.T) {
	m := vertexPassthrough()
	// Entry-point functions have no internal calling convention; calling
	// one must fail cleanly rather than crash.
	m.Functions = append(m.Functions, ir.Function{
		Name: "helper",
		Body: ir.Block{{Kind: ir.StmtCall{Function: 0}}},
	})

	_, err := New(Options{}).Compile(m)
	if err == nil {
		t.Fatal("expected error for a call targeting an entry function")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || wasmErr.Kind != ErrInvalidModule {
		t.Errorf("error = %v, want ErrInvalidModule", err)
	}
}

func TestCompile_CallOutOfRange(t *testing.T) {
	m := vertexPassthrough()
	m.Functions = append(m.Functions, ir.Function{
		Name: "helper",
		Body: ir.Block{{Kind: ir.StmtCall{Function: 7}}},
	})

	_, err := New(Options{}).Compile(m)
	if err == nil {
		t.Fatal("expected error for a call past the function arena")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || wasmErr.Kind != ErrInvalidModule {
		t.Errorf("error = %v, want ErrInvalidModule", err)
	}
}

func TestCompile_TextureSample(t *testing.T) {
	reg := ir.NewTypeRegistry()
	vec2 := reg.GetOrCreate("vec2<f32>", ir.VectorType{
		Size: ir.Vec2, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})
	vec4 := reg.GetOrCreate("vec4<f32>", ir.VectorType{
		Size: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})
	tex2d := reg.GetOrCreate("texture_2d<f32>", ir.ImageType{Dim: ir.Dim2D, Class: ir.ImageClassSampled})
	sampler := reg.GetOrCreate("sampler", ir.SamplerType{})
	locBinding := ir.Binding(ir.LocationBinding{Location: 0})

	ret := ir.ExpressionHandle(3)
	m := &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{
			{Name: "tex", Space: ir.SpaceHandle, Binding: &ir.ResourceBinding{Group: 0, Binding: 0}, Type: tex2d},
			{Name: "samp", Space: ir.SpaceHandle, Binding: &ir.ResourceBinding{Group: 0, Binding: 1}, Type: sampler},
		},
		Functions: []ir.Function{{
			Name: "fragment_main",
			Arguments: []ir.FunctionArgument{
				{Name: "uv", Type: vec2, Binding: &locBinding},
			},
			Result: &ir.FunctionResult{Type: vec4, Binding: &locBinding},
			Expressions: []ir.Expression{
				{Kind: ir.ExprGlobalVariable{Variable: 0}},
				{Kind: ir.ExprGlobalVariable{Variable: 1}},
				{Kind: ir.ExprFunctionArgument{Index: 0}},
				{Kind: ir.ExprImageSample{Image: 0, Sampler: 1, Coordinate: 2}},
			},
			Body: ir.Block{{Kind: ir.StmtReturn{Value: &ret}}},
		}},
		EntryPoints: []ir.EntryPoint{{Name: "fragment_main", Stage: ir.StageFragment, Function: 0}},
	}

	out, err := New(Options{}).Compile(m)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if out.Regions.Uniform != 2*contextSlotSize {
		t.Errorf("uniform region = %d, want two context slots", out.Regions.Uniform)
	}
}

func TestCompile_ComputeRejected(t *testing.T) {
	m := &ir.Module{
		Functions:   []ir.Function{{Name: "cs_main"}},
		EntryPoints: []ir.EntryPoint{{Name: "cs_main", Stage: ir.StageCompute, Function: 0}},
	}
	_, err := New(Options{}).Compile(m)
	if err == nil {
		t.Fatal("expected error for compute entry point")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || !wasmErr.IsUnsupportedFeature() {
		t.Errorf("error = %v, want ErrUnsupportedFeature", err)
	}
}

func TestCompile_DuplicateEntryNames(t *testing.T) {
	m := &ir.Module{
		Functions: []ir.Function{{Name: "a"}, {Name: "b"}},
		EntryPoints: []ir.EntryPoint{
			{Name: "main", Stage: ir.StageVertex, Function: 0},
			{Name: "main", Stage: ir.StageFragment, Function: 1},
		},
	}
	_, err := New(Options{}).Compile(m)
	if err == nil {
		t.Fatal("expected error for duplicate entry names")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || wasmErr.Kind != ErrInvalidModule {
		t.Errorf("error = %v, want ErrInvalidModule", err)
	}
}
