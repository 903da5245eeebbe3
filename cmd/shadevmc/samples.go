package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gogpu/shadevm/ir"
)

// sampleModules holds the built-in demonstration shaders, keyed by name.
var sampleModules = map[string]func() *ir.Module{
	"mvp_transform": buildMVPTransform,
	"textured":      buildTextured,
	"pulse":         buildPulse,
}

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "list the built-in sample shaders",
	Run: func(cmd *cobra.Command, _ []string) {
		names := make([]string, 0, len(sampleModules))
		for name := range sampleModules {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

// exprArena collects expressions while a sample function body is built.
type exprArena struct {
	exprs []ir.Expression
}

func (a *exprArena) add(kind ir.ExpressionKind) ir.ExpressionHandle {
	h := ir.ExpressionHandle(len(a.exprs))
	a.exprs = append(a.exprs, ir.Expression{Kind: kind})
	return h
}

func (a *exprArena) f32(v float32) ir.ExpressionHandle {
	return a.add(ir.Literal{Value: ir.LiteralF32(v)})
}

func location(n uint32) *ir.Binding {
	b := ir.Binding(ir.LocationBinding{Location: n})
	return &b
}

func builtin(v ir.BuiltinValue) *ir.Binding {
	b := ir.Binding(ir.BuiltinBinding{Builtin: v})
	return &b
}

func retValue(h ir.ExpressionHandle) ir.Statement {
	return ir.Statement{Kind: ir.StmtReturn{Value: &h}}
}

func f32Type(reg *ir.TypeRegistry) ir.TypeHandle {
	return reg.GetOrCreate("f32", ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
}

func vecType(reg *ir.TypeRegistry, size ir.VectorSize) ir.TypeHandle {
	name := fmt.Sprintf("vec%d<f32>", size)
	return reg.GetOrCreate(name, ir.VectorType{
		Size:   size,
		Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})
}

// buildMVPTransform is a minimal vertex shader: one mat4 uniform times the
// position attribute.
func buildMVPTransform() *ir.Module {
	reg := ir.NewTypeRegistry()
	vec4 := vecType(reg, ir.Vec4)
	mat4 := reg.GetOrCreate("mat4x4<f32>", ir.MatrixType{
		Columns: ir.Vec4,
		Rows:    ir.Vec4,
		Scalar:  ir.ScalarType{Kind: ir.ScalarFloat, Width: 4},
	})

	var a exprArena
	mvpPtr := a.add(ir.ExprGlobalVariable{Variable: 0})
	mvp := a.add(ir.ExprLoad{Pointer: mvpPtr})
	pos := a.add(ir.ExprFunctionArgument{Index: 0})
	out := a.add(ir.ExprBinary{Op: ir.BinaryMultiply, Left: mvp, Right: pos})

	return &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{{
			Name:    "mvp",
			Space:   ir.SpaceUniform,
			Binding: &ir.ResourceBinding{Group: 0, Binding: 0},
			Type:    mat4,
		}},
		Functions: []ir.Function{{
			Name: "vertex_main",
			Arguments: []ir.FunctionArgument{{
				Name:    "position",
				Type:    vec4,
				Binding: location(0),
			}},
			Result:      &ir.FunctionResult{Type: vec4, Binding: builtin(ir.BuiltinPosition)},
			Expressions: a.exprs,
			Body:        ir.Block{retValue(out)},
		}},
		EntryPoints: []ir.EntryPoint{{
			Name:     "vertex_main",
			Stage:    ir.StageVertex,
			Function: 0,
		}},
	}
}

// buildTextured is a fragment shader sampling a 2D texture at the
// interpolated UV coordinate.
func buildTextured() *ir.Module {
	reg := ir.NewTypeRegistry()
	vec2 := vecType(reg, ir.Vec2)
	vec4 := vecType(reg, ir.Vec4)
	tex2d := reg.GetOrCreate("texture_2d<f32>", ir.ImageType{
		Dim:   ir.Dim2D,
		Class: ir.ImageClassSampled,
	})
	sampler := reg.GetOrCreate("sampler", ir.SamplerType{})

	var a exprArena
	tex := a.add(ir.ExprGlobalVariable{Variable: 0})
	samp := a.add(ir.ExprGlobalVariable{Variable: 1})
	uv := a.add(ir.ExprFunctionArgument{Index: 0})
	color := a.add(ir.ExprImageSample{Image: tex, Sampler: samp, Coordinate: uv})

	return &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{
			{
				Name:    "tex",
				Space:   ir.SpaceHandle,
				Binding: &ir.ResourceBinding{Group: 0, Binding: 1},
				Type:    tex2d,
			},
			{
				Name:    "samp",
				Space:   ir.SpaceHandle,
				Binding: &ir.ResourceBinding{Group: 0, Binding: 2},
				Type:    sampler,
			},
		},
		Functions: []ir.Function{{
			Name: "fragment_main",
			Arguments: []ir.FunctionArgument{{
				Name:    "uv",
				Type:    vec2,
				Binding: location(0),
			}},
			Result:      &ir.FunctionResult{Type: vec4, Binding: location(0)},
			Expressions: a.exprs,
			Body:        ir.Block{retValue(color)},
		}},
		EntryPoints: []ir.EntryPoint{{
			Name:     "fragment_main",
			Stage:    ir.StageFragment,
			Function: 0,
		}},
	}
}

// buildPulse is a fragment shader that calls an internal helper, which in
// turn uses the sin host import, and composes a grayscale color from the
// result.
func buildPulse() *ir.Module {
	reg := ir.NewTypeRegistry()
	f32 := f32Type(reg)
	vec4 := vecType(reg, ir.Vec4)

	// fn brightness(t: f32) -> f32 { return 0.5 + 0.5 * sin(t); }
	var hb exprArena
	t := hb.add(ir.ExprFunctionArgument{Index: 0})
	sinT := hb.add(ir.ExprMath{Fun: ir.MathSin, Arg: t})
	halfA := hb.f32(0.5)
	halfB := hb.f32(0.5)
	scaled := hb.add(ir.ExprBinary{Op: ir.BinaryMultiply, Left: halfB, Right: sinT})
	sum := hb.add(ir.ExprBinary{Op: ir.BinaryAdd, Left: halfA, Right: scaled})

	var eb exprArena
	timePtr := eb.add(ir.ExprGlobalVariable{Variable: 0})
	timeVal := eb.add(ir.ExprLoad{Pointer: timePtr})
	c := eb.add(ir.ExprCallResult{Function: 0})
	one := eb.f32(1)
	color := eb.add(ir.ExprCompose{Type: vec4, Components: []ir.ExpressionHandle{c, c, c, one}})

	return &ir.Module{
		Types: reg.Types(),
		GlobalVariables: []ir.GlobalVariable{{
			Name:    "time",
			Space:   ir.SpaceUniform,
			Binding: &ir.ResourceBinding{Group: 0, Binding: 0},
			Type:    f32,
		}},
		Functions: []ir.Function{
			{
				Name:        "brightness",
				Arguments:   []ir.FunctionArgument{{Name: "t", Type: f32}},
				Result:      &ir.FunctionResult{Type: f32},
				Expressions: hb.exprs,
				Body:        ir.Block{retValue(sum)},
			},
			{
				Name:        "fragment_main",
				Result:      &ir.FunctionResult{Type: vec4, Binding: location(0)},
				Expressions: eb.exprs,
				Body: ir.Block{
					{Kind: ir.StmtCall{
						Function:  0,
						Arguments: []ir.ExpressionHandle{timeVal},
						Result:    &c,
					}},
					retValue(color),
				},
			},
		},
		EntryPoints: []ir.EntryPoint{{
			Name:     "fragment_main",
			Stage:    ir.StageFragment,
			Function: 1,
		}},
	}
}
