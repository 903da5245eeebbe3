// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/shadevm/ir"
)

// controlFlowModule builds a fragment shader covering locals, loops with
// break, if, switch, and stores:
//
//	var acc: f32 = 0.0;
//	loop {
//	    if acc > 4.0 { break; }
//	    acc = acc + 1.0;
//	}
//	switch 1 { case 1: acc = 2.0; default: {} }
//	return acc;
func controlFlowModule() *ir.Module {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	locBinding := ir.Binding(ir.LocationBinding{Location: 0})

	initHandle := ir.ExpressionHandle(6)
	ret := ir.ExpressionHandle(1)
	return &ir.Module{
		Types: reg.Types(),
		Functions: []ir.Function{{
			Name:   "fragment_main",
			Result: &ir.FunctionResult{Type: f32, Binding: &locBinding},
			LocalVars: []ir.LocalVariable{
				{Name: "acc", Type: f32, Init: &initHandle},
			},
			Expressions: []ir.Expression{
				{Kind: ir.ExprLocalVariable{Variable: 0}},
				{Kind: ir.ExprLoad{Pointer: 0}},
				{Kind: ir.Literal{Value: ir.LiteralF32(4)}},
				{Kind: ir.ExprBinary{Op: ir.BinaryGreater, Left: 1, Right: 2}},
				{Kind: ir.Literal{Value: ir.LiteralF32(1)}},
				{Kind: ir.ExprBinary{Op: ir.BinaryAdd, Left: 1, Right: 4}},
				{Kind: ir.Literal{Value: ir.LiteralF32(0)}},
				{Kind: ir.Literal{Value: ir.LiteralI32(1)}},
				{Kind: ir.Literal{Value: ir.LiteralF32(2)}},
			},
			Body: ir.Block{
				{Kind: ir.StmtLoop{
					Body: ir.Block{
						{Kind: ir.StmtIf{
							Condition: 3,
							Accept:    ir.Block{{Kind: ir.StmtBreak{}}},
						}},
						{Kind: ir.StmtStore{Pointer: 0, Value: 5}},
					},
				}},
				{Kind: ir.StmtSwitch{
					Selector: 7,
					Cases: []ir.SwitchCase{
						{Value: ir.SwitchValueI32(1), Body: ir.Block{{Kind: ir.StmtStore{Pointer: 0, Value: 8}}}},
						{Value: ir.SwitchValueDefault{}},
					},
				}},
				{Kind: ir.StmtReturn{Value: &ret}},
			},
		}},
		EntryPoints: []ir.EntryPoint{{Name: "fragment_main", Stage: ir.StageFragment, Function: 0}},
	}
}

func TestCompile_ControlFlow(t *testing.T) {
	out, err := New(Options{}).Compile(controlFlowModule())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !bytes.HasPrefix(out.Bytes, wasmMagic) {
		t.Fatal("missing module magic")
	}
	// The local lives in the private region past the pinned output area.
	if out.Regions.Private < localBaseOffset+4 {
		t.Errorf("private region = 0x%x, want at least 0x%x", out.Regions.Private, localBaseOffset+4)
	}
}

func TestCompile_ControlFlowDebugStepping(t *testing.T) {
	// Debug stepping prefixes every statement with a host callback; the
	// module must still assemble around the extra import.
	out, err := New(Options{DebugStepping: true}).Compile(controlFlowModule())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !bytes.Contains(out.Bytes, []byte("debug_step")) {
		t.Error("debug_step import missing")
	}
}

func TestCompile_SwitchFallthroughRejected(t *testing.T) {
	m := controlFlowModule()
	body := m.Functions[0].Body
	sw := body[1].Kind.(ir.StmtSwitch)
	sw.Cases[0].FallThrough = true
	body[1].Kind = sw

	_, err := New(Options{}).Compile(m)
	if err == nil {
		t.Fatal("expected error for fallthrough case")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || !wasmErr.IsUnsupportedFeature() {
		t.Errorf("error = %v, want ErrUnsupportedFeature", err)
	}
}

func TestCompile_DynamicIndexOnValueRejected(t *testing.T) {
	reg := ir.NewTypeRegistry()
	f32 := reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	vec4 := reg.GetOrCreate("vec4<f32>", ir.VectorType{
		Size: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})
	locBinding := ir.Binding(ir.LocationBinding{Location: 0})

	ret := ir.ExpressionHandle(3)
	m := &ir.Module{
		Types: reg.Types(),
		Functions: []ir.Function{{
			Name:   "fragment_main",
			Result: &ir.FunctionResult{Type: f32, Binding: &locBinding},
			Expressions: []ir.Expression{
				{Kind: ir.Literal{Value: ir.LiteralF32(1)}},
				{Kind: ir.ExprCompose{Type: vec4, Components: []ir.ExpressionHandle{0, 0, 0, 0}}},
				{Kind: ir.Literal{Value: ir.LiteralI32(2)}},
				{Kind: ir.ExprAccess{Base: 1, Index: 2}},
			},
			Body: ir.Block{{Kind: ir.StmtReturn{Value: &ret}}},
		}},
		EntryPoints: []ir.EntryPoint{{Name: "fragment_main", Stage: ir.StageFragment, Function: 0}},
	}

	_, err := New(Options{}).Compile(m)
	if err == nil {
		t.Fatal("expected error for computed index on a register value")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || !wasmErr.IsUnsupportedFeature() {
		t.Errorf("error = %v, want ErrUnsupportedFeature", err)
	}
}

func TestCompile_BuiltinInputConversion(t *testing.T) {
	reg := ir.NewTypeRegistry()
	u32 := reg.GetOrCreate("u32", ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	vec4 := reg.GetOrCreate("vec4<f32>", ir.VectorType{
		Size: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})
	viBinding := ir.Binding(ir.BuiltinBinding{Builtin: ir.BuiltinVertexIndex})
	posBinding := ir.Binding(ir.BuiltinBinding{Builtin: ir.BuiltinPosition})
	width := uint8(4)

	ret := ir.ExpressionHandle(4)
	m := &ir.Module{
		Types: reg.Types(),
		Functions: []ir.Function{{
			Name: "vertex_main",
			Arguments: []ir.FunctionArgument{
				{Name: "vi", Type: u32, Binding: &viBinding},
			},
			Result: &ir.FunctionResult{Type: vec4, Binding: &posBinding},
			Expressions: []ir.Expression{
				{Kind: ir.ExprFunctionArgument{Index: 0}},
				{Kind: ir.ExprAs{Expr: 0, Kind: ir.ScalarFloat, Convert: &width}},
				{Kind: ir.Literal{Value: ir.LiteralF32(0)}},
				{Kind: ir.Literal{Value: ir.LiteralF32(1)}},
				{Kind: ir.ExprCompose{Type: vec4, Components: []ir.ExpressionHandle{1, 2, 2, 3}}},
			},
			Body: ir.Block{{Kind: ir.StmtReturn{Value: &ret}}},
		}},
		EntryPoints: []ir.EntryPoint{{Name: "vertex_main", Stage: ir.StageVertex, Function: 0}},
	}

	if _, err := New(Options{}).Compile(m); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
}
