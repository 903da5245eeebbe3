// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"github.com/gogpu/shadevm/ir"
)

// Math functions fall in three tiers: direct native opcodes (sqrt, floor,
// abs, min/max on floats), explicit primitive expansions (clamp, mix,
// cross, length, and friends), and host-import calls for the
// transcendentals the target has no opcode for.

// mathImportName maps a transcendental function to its host import.
var mathImportName = map[ir.MathFunction]string{
	ir.MathSin:   "sin",
	ir.MathCos:   "cos",
	ir.MathTan:   "tan",
	ir.MathAsin:  "asin",
	ir.MathAcos:  "acos",
	ir.MathAtan:  "atan",
	ir.MathAtan2: "atan2",
	ir.MathExp:   "exp",
	ir.MathExp2:  "exp2",
	ir.MathLog:   "log",
	ir.MathLog2:  "log2",
	ir.MathPow:   "pow",
}

func (fc *funcCompiler) lowerMath(e ir.ExprMath, comp int) error {
	if name, ok := mathImportName[e.Fun]; ok {
		return fc.lowerMathImport(e, name, comp)
	}

	kind, err := fc.scalarKindOf(e.Arg)
	if err != nil {
		return err
	}

	switch e.Fun {
	case ir.MathAbs:
		return fc.lowerAbs(e, kind, comp)
	case ir.MathMin:
		return fc.lowerMinMax(e, kind, comp, true)
	case ir.MathMax:
		return fc.lowerMinMax(e, kind, comp, false)
	case ir.MathClamp:
		return fc.lowerClamp(e, kind, comp)
	case ir.MathSaturate:
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		fc.f32Const(0)
		fc.op(opF32Max)
		fc.f32Const(1)
		fc.op(opF32Min)
		return nil

	case ir.MathCeil, ir.MathFloor, ir.MathRound, ir.MathTrunc, ir.MathSqrt:
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		switch e.Fun {
		case ir.MathCeil:
			fc.op(opF32Ceil)
		case ir.MathFloor:
			fc.op(opF32Floor)
		case ir.MathRound:
			fc.op(opF32Nearest)
		case ir.MathTrunc:
			fc.op(opF32Trunc)
		default:
			fc.op(opF32Sqrt)
		}
		return nil

	case ir.MathFract:
		// x - floor(x)
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		fc.op(opF32Floor)
		fc.op(opF32Sub)
		return nil

	case ir.MathInverseSqrt:
		fc.f32Const(1)
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		fc.op(opF32Sqrt)
		fc.op(opF32Div)
		return nil

	case ir.MathSign:
		return fc.lowerSign(e, kind, comp)

	case ir.MathFma:
		// a*b + c
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
			return err
		}
		fc.op(opF32Mul)
		if err := fc.lowerOperand(*e.Arg2, comp); err != nil {
			return err
		}
		fc.op(opF32Add)
		return nil

	case ir.MathMix:
		// a + (b-a)*t
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
			return err
		}
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		fc.op(opF32Sub)
		if err := fc.lowerOperand(*e.Arg2, comp); err != nil {
			return err
		}
		fc.op(opF32Mul)
		fc.op(opF32Add)
		return nil

	case ir.MathStep:
		// step(edge, x): 0 when x < edge, else 1
		fc.f32Const(0)
		fc.f32Const(1)
		if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
			return err
		}
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		fc.op(opF32Lt)
		fc.op(opSelect)
		return nil

	case ir.MathSmoothStep:
		return fc.lowerSmoothStep(e, comp)

	case ir.MathDot:
		return fc.lowerDot(e.Arg, *e.Arg1, kind)
	case ir.MathCross:
		return fc.lowerCross(e, comp)
	case ir.MathLength:
		return fc.lowerLength(e.Arg)
	case ir.MathDistance:
		return fc.lowerDistance(e.Arg, *e.Arg1)
	case ir.MathNormalize:
		if err := fc.lowerComponent(e.Arg, comp); err != nil {
			return err
		}
		if err := fc.lowerLength(e.Arg); err != nil {
			return err
		}
		fc.op(opF32Div)
		return nil
	case ir.MathOuter:
		return fc.lowerOuter(e, comp)
	case ir.MathTranspose:
		return fc.lowerTranspose(e, comp)

	default:
		return Errorf(ErrUnsupportedFeature, "math function %d", e.Fun).InFunction(fc.fn.Name)
	}
}

func (fc *funcCompiler) lowerMathImport(e ir.ExprMath, name string, comp int) error {
	idx, err := fc.c.requireMathImport(e.Fun, name)
	if err != nil {
		return err
	}
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	if e.Fun == ir.MathAtan2 || e.Fun == ir.MathPow {
		if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
			return err
		}
	}
	fc.call(idx)
	return nil
}

func (fc *funcCompiler) lowerAbs(e ir.ExprMath, kind ir.ScalarKind, comp int) error {
	if kind == ir.ScalarFloat {
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		fc.op(opF32Abs)
		return nil
	}
	// |x| = x < 0 ? -x : x
	fc.i32Const(0)
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	fc.op(opI32Sub)
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	fc.i32Const(0)
	fc.op(opI32LtS)
	fc.op(opSelect)
	return nil
}

func (fc *funcCompiler) lowerMinMax(e ir.ExprMath, kind ir.ScalarKind, comp int, min bool) error {
	if kind == ir.ScalarFloat {
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
			return err
		}
		if min {
			fc.op(opF32Min)
		} else {
			fc.op(opF32Max)
		}
		return nil
	}
	// min(a,b) = a < b ? a : b, and dually for max.
	cmp := opI32LtS
	if kind == ir.ScalarUint {
		cmp = opI32LtU
	}
	if !min {
		if kind == ir.ScalarUint {
			cmp = opI32GtU
		} else {
			cmp = opI32GtS
		}
	}
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
		return err
	}
	fc.op(cmp)
	fc.op(opSelect)
	return nil
}

func (fc *funcCompiler) lowerClamp(e ir.ExprMath, kind ir.ScalarKind, comp int) error {
	if kind == ir.ScalarFloat {
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
			return err
		}
		fc.op(opF32Max)
		if err := fc.lowerOperand(*e.Arg2, comp); err != nil {
			return err
		}
		fc.op(opF32Min)
		return nil
	}
	// Integer clamp spills the inner max(x, lo) to a scratch local so the
	// outer min can reuse it without a stack duplicate.
	lt, gt := opI32LtS, opI32GtS
	if kind == ir.ScalarUint {
		lt, gt = opI32LtU, opI32GtU
	}
	t := fc.allocScratch(ValI32)
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
		return err
	}
	fc.op(gt)
	fc.op(opSelect)
	fc.localTee(t)
	if err := fc.lowerOperand(*e.Arg2, comp); err != nil {
		return err
	}
	fc.localGet(t)
	if err := fc.lowerOperand(*e.Arg2, comp); err != nil {
		return err
	}
	fc.op(lt)
	fc.op(opSelect)
	return nil
}

func (fc *funcCompiler) lowerSign(e ir.ExprMath, kind ir.ScalarKind, comp int) error {
	// sign(x) = x > 0 ? 1 : (x < 0 ? -1 : 0)
	if kind == ir.ScalarFloat {
		fc.f32Const(1)
		fc.f32Const(-1)
		fc.f32Const(0)
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		fc.f32Const(0)
		fc.op(opF32Lt)
		fc.op(opSelect)
		if err := fc.lowerOperand(e.Arg, comp); err != nil {
			return err
		}
		fc.f32Const(0)
		fc.op(opF32Gt)
		fc.op(opSelect)
		return nil
	}
	fc.i32Const(1)
	fc.i32Const(-1)
	fc.i32Const(0)
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	fc.i32Const(0)
	fc.op(opI32LtS)
	fc.op(opSelect)
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	fc.i32Const(0)
	fc.op(opI32GtS)
	fc.op(opSelect)
	return nil
}

func (fc *funcCompiler) lowerSmoothStep(e ir.ExprMath, comp int) error {
	// t = saturate((x-e0)/(e1-e0)); t*t*(3-2t)
	t := fc.allocScratch(ValF32)
	if err := fc.lowerOperand(*e.Arg2, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	fc.op(opF32Sub)
	if err := fc.lowerOperand(*e.Arg1, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(e.Arg, comp); err != nil {
		return err
	}
	fc.op(opF32Sub)
	fc.op(opF32Div)
	fc.f32Const(0)
	fc.op(opF32Max)
	fc.f32Const(1)
	fc.op(opF32Min)
	fc.localTee(t)
	fc.localGet(t)
	fc.op(opF32Mul)
	fc.f32Const(3)
	fc.f32Const(2)
	fc.localGet(t)
	fc.op(opF32Mul)
	fc.op(opF32Sub)
	fc.op(opF32Mul)
	return nil
}

// lowerDot emits the component-product summation of two vectors.
func (fc *funcCompiler) lowerDot(a, b ir.ExpressionHandle, kind ir.ScalarKind) error {
	n, err := fc.compCountOf(a)
	if err != nil {
		return err
	}
	mul, add := opF32Mul, opF32Add
	if kind != ir.ScalarFloat {
		mul, add = opI32Mul, opI32Add
	}
	for k := 0; k < n; k++ {
		if err := fc.lowerComponent(a, k); err != nil {
			return err
		}
		if err := fc.lowerComponent(b, k); err != nil {
			return err
		}
		fc.op(mul)
		if k > 0 {
			fc.op(add)
		}
	}
	return nil
}

func (fc *funcCompiler) lowerCross(e ir.ExprMath, comp int) error {
	// cross(a,b)[c] = a[c+1]*b[c+2] - a[c+2]*b[c+1], indices mod 3.
	i, j := (comp+1)%3, (comp+2)%3
	if err := fc.lowerComponent(e.Arg, i); err != nil {
		return err
	}
	if err := fc.lowerComponent(*e.Arg1, j); err != nil {
		return err
	}
	fc.op(opF32Mul)
	if err := fc.lowerComponent(e.Arg, j); err != nil {
		return err
	}
	if err := fc.lowerComponent(*e.Arg1, i); err != nil {
		return err
	}
	fc.op(opF32Mul)
	fc.op(opF32Sub)
	return nil
}

func (fc *funcCompiler) lowerLength(v ir.ExpressionHandle) error {
	inner, err := fc.resolveInner(v)
	if err != nil {
		return err
	}
	if _, ok := inner.(ir.ScalarType); ok {
		if err := fc.lowerComponent(v, 0); err != nil {
			return err
		}
		fc.op(opF32Abs)
		return nil
	}
	if err := fc.lowerDot(v, v, ir.ScalarFloat); err != nil {
		return err
	}
	fc.op(opF32Sqrt)
	return nil
}

func (fc *funcCompiler) lowerDistance(a, b ir.ExpressionHandle) error {
	n, err := fc.compCountOf(a)
	if err != nil {
		return err
	}
	for k := 0; k < n; k++ {
		if err := fc.lowerComponent(a, k); err != nil {
			return err
		}
		if err := fc.lowerComponent(b, k); err != nil {
			return err
		}
		fc.op(opF32Sub)
		if err := fc.lowerComponent(a, k); err != nil {
			return err
		}
		if err := fc.lowerComponent(b, k); err != nil {
			return err
		}
		fc.op(opF32Sub)
		fc.op(opF32Mul)
		if k > 0 {
			fc.op(opF32Add)
		}
	}
	fc.op(opF32Sqrt)
	return nil
}

func (fc *funcCompiler) lowerOuter(e ir.ExprMath, comp int) error {
	// outer(a,b)[col][row] = a[row] * b[col]
	rows, err := fc.compCountOf(e.Arg)
	if err != nil {
		return err
	}
	col, row := comp/rows, comp%rows
	if err := fc.lowerComponent(e.Arg, row); err != nil {
		return err
	}
	if err := fc.lowerComponent(*e.Arg1, col); err != nil {
		return err
	}
	fc.op(opF32Mul)
	return nil
}

func (fc *funcCompiler) lowerTranspose(e ir.ExprMath, comp int) error {
	inner, err := fc.resolveInner(e.Arg)
	if err != nil {
		return err
	}
	mt, ok := inner.(ir.MatrixType)
	if !ok {
		return NewError(ErrUnsupportedType, "transpose of a non-matrix").InFunction(fc.fn.Name)
	}
	// The result has the argument's dimensions swapped; component i of the
	// result at (col, row) reads the argument at (row, col).
	resRows := int(mt.Columns)
	col, row := comp/resRows, comp%resRows
	return fc.lowerComponent(e.Arg, row*int(mt.Rows)+col)
}
