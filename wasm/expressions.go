// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"github.com/gogpu/shadevm/ir"
)

// The lowering engine has no vector registers to work with: every value is
// materialized one scalar component at a time. lowerComponent emits the
// instruction sequence producing component comp of an expression; callers
// that need a whole vector invoke it once per component. Shared
// subexpressions are re-lowered on every visit; there is no cross-component
// value reuse.

// resolveInner resolves an expression to its underlying type shape.
func (fc *funcCompiler) resolveInner(h ir.ExpressionHandle) (ir.TypeInner, error) {
	res, err := ir.ResolveExpressionType(fc.m, fc.fn, h)
	if err != nil {
		return nil, Errorf(ErrInvalidModule, "type resolution failed: %v", err).InFunction(fc.fn.Name)
	}
	return res.Inner(fc.m), nil
}

// scalarKindOfInner returns the component scalar kind of a value shape.
func scalarKindOfInner(inner ir.TypeInner) (ir.ScalarKind, *Error) {
	switch t := inner.(type) {
	case ir.ScalarType:
		return t.Kind, nil
	case ir.VectorType:
		return t.Scalar.Kind, nil
	case ir.MatrixType:
		return t.Scalar.Kind, nil
	default:
		return 0, Errorf(ErrUnsupportedType, "%T has no scalar components", inner)
	}
}

// scalarKindOf returns the component scalar kind of an expression.
func (fc *funcCompiler) scalarKindOf(h ir.ExpressionHandle) (ir.ScalarKind, error) {
	inner, err := fc.resolveInner(h)
	if err != nil {
		return 0, err
	}
	kind, kerr := scalarKindOfInner(inner)
	if kerr != nil {
		return 0, kerr.InFunction(fc.fn.Name)
	}
	return kind, nil
}

// compCountOf returns the scalar component count of an expression.
func (fc *funcCompiler) compCountOf(h ir.ExpressionHandle) (int, error) {
	inner, err := fc.resolveInner(h)
	if err != nil {
		return 0, err
	}
	n, cerr := componentCount(fc.m, inner)
	if cerr != nil {
		return 0, cerr.InFunction(fc.fn.Name)
	}
	return n, nil
}

// operandComp maps a requested component onto an operand, broadcasting
// scalars to every lane.
func (fc *funcCompiler) operandComp(h ir.ExpressionHandle, comp int) (int, error) {
	inner, err := fc.resolveInner(h)
	if err != nil {
		return 0, err
	}
	if _, ok := inner.(ir.ScalarType); ok {
		return 0, nil
	}
	return comp, nil
}

// lowerOperand lowers one component of an operand with scalar broadcast.
func (fc *funcCompiler) lowerOperand(h ir.ExpressionHandle, comp int) error {
	oc, err := fc.operandComp(h, comp)
	if err != nil {
		return err
	}
	return fc.lowerComponent(h, oc)
}

// lowerComponent emits code leaving component comp of expression h on the
// operand stack.
func (fc *funcCompiler) lowerComponent(h ir.ExpressionHandle, comp int) error {
	switch e := fc.fn.Expressions[h].Kind.(type) {
	case ir.Literal:
		return fc.lowerLiteral(e)
	case ir.ExprZeroValue:
		comps, err := componentsOf(fc.m, fc.m.Types[e.Type].Inner)
		if err != nil {
			return err.InFunction(fc.fn.Name)
		}
		fc.zeroConst(comps[comp].kind)
		return nil
	case ir.ExprCompose:
		return fc.lowerCompose(e, comp)
	case ir.ExprAccessIndex:
		return fc.lowerAccessIndexValue(e, comp)
	case ir.ExprAccess:
		return fc.lowerAccessValue(e)
	case ir.ExprSplat:
		return fc.lowerComponent(e.Value, 0)
	case ir.ExprSwizzle:
		return fc.lowerComponent(e.Vector, int(e.Pattern[comp]))
	case ir.ExprFunctionArgument:
		return fc.lowerArgumentValue(e, comp)
	case ir.ExprGlobalVariable:
		return fc.lowerHandleValue(e)
	case ir.ExprLoad:
		return fc.lowerLoad(e, comp)
	case ir.ExprUnary:
		return fc.lowerUnary(e, comp)
	case ir.ExprBinary:
		return fc.lowerBinary(e, comp)
	case ir.ExprSelect:
		if err := fc.lowerOperand(e.Accept, comp); err != nil {
			return err
		}
		if err := fc.lowerOperand(e.Reject, comp); err != nil {
			return err
		}
		if err := fc.lowerComponent(e.Condition, 0); err != nil {
			return err
		}
		fc.op(opSelect)
		return nil
	case ir.ExprMath:
		return fc.lowerMath(e, comp)
	case ir.ExprAs:
		return fc.lowerAs(e, comp)
	case ir.ExprCallResult:
		scratch, ok := fc.callResults[h]
		if !ok {
			return NewError(ErrInvalidModule, "call result referenced before its call").InFunction(fc.fn.Name)
		}
		fc.localGet(scratch[comp])
		return nil
	case ir.ExprImageSample:
		return fc.lowerImageSample(e, comp)
	case ir.ExprImageLoad:
		return fc.lowerImageLoad(e, comp)
	case ir.ExprImageQuery:
		return fc.lowerImageQuery(e, comp)
	default:
		return Errorf(ErrUnsupportedFeature, "expression %T cannot be lowered", e).InFunction(fc.fn.Name)
	}
}

func (fc *funcCompiler) lowerLiteral(e ir.Literal) error {
	switch v := e.Value.(type) {
	case ir.LiteralF32:
		fc.f32Const(float32(v))
	case ir.LiteralI32:
		fc.i32Const(int32(v))
	case ir.LiteralU32:
		fc.i32Const(int32(v))
	case ir.LiteralBool:
		if v {
			fc.i32Const(1)
		} else {
			fc.i32Const(0)
		}
	default:
		return NewError(ErrUnsupportedType, "abstract literal reached the backend").InFunction(fc.fn.Name)
	}
	return nil
}

// lowerCompose maps the requested component through the constructor
// operands, each of which may itself be multi-component.
func (fc *funcCompiler) lowerCompose(e ir.ExprCompose, comp int) error {
	remaining := comp
	for _, sub := range e.Components {
		n, err := fc.compCountOf(sub)
		if err != nil {
			return err
		}
		if remaining < n {
			return fc.lowerComponent(sub, remaining)
		}
		remaining -= n
	}
	return Errorf(ErrInternalError, "compose component %d out of range", comp).InFunction(fc.fn.Name)
}

// lowerAccessIndexValue lowers constant indexing of a register value. For
// pointer bases the access is address arithmetic and never reaches here.
func (fc *funcCompiler) lowerAccessIndexValue(e ir.ExprAccessIndex, comp int) error {
	inner, err := fc.resolveInner(e.Base)
	if err != nil {
		return err
	}
	switch t := inner.(type) {
	case ir.VectorType:
		return fc.lowerComponent(e.Base, int(e.Index))
	case ir.MatrixType:
		return fc.lowerComponent(e.Base, int(e.Index)*int(t.Rows)+comp)
	case ir.ArrayType:
		n, cerr := componentCount(fc.m, fc.m.Types[t.Base].Inner)
		if cerr != nil {
			return cerr.InFunction(fc.fn.Name)
		}
		return fc.lowerComponent(e.Base, int(e.Index)*n+comp)
	case ir.StructType:
		skip := 0
		for i := uint32(0); i < e.Index; i++ {
			n, cerr := componentCount(fc.m, fc.m.Types[t.Members[i].Type].Inner)
			if cerr != nil {
				return cerr.InFunction(fc.fn.Name)
			}
			skip += n
		}
		return fc.lowerComponent(e.Base, skip+comp)
	case ir.PointerType:
		return NewError(ErrInternalError, "pointer access used as a value").InFunction(fc.fn.Name)
	default:
		return Errorf(ErrUnsupportedType, "cannot index %T", inner).InFunction(fc.fn.Name)
	}
}

// lowerAccessValue handles dynamic indexing. Register values have no
// runtime-addressable components, so only memory-backed bases qualify.
func (fc *funcCompiler) lowerAccessValue(e ir.ExprAccess) error {
	inner, err := fc.resolveInner(e.Base)
	if err != nil {
		return err
	}
	if _, ok := inner.(ir.PointerType); ok {
		return NewError(ErrInternalError, "pointer access used as a value").InFunction(fc.fn.Name)
	}
	return NewError(ErrUnsupportedFeature,
		"dynamic indexing requires a memory-backed value; load through a pointer instead").InFunction(fc.fn.Name)
}

// lowerArgumentValue reads one component of a parameter: from its stage
// I/O region in entry points, from native slots or the call frame
// otherwise.
func (fc *funcCompiler) lowerArgumentValue(e ir.ExprFunctionArgument, comp int) error {
	if fc.entry != nil {
		rc := fc.c.plan.entryInputs[fc.handle][e.Index][comp]
		fc.globalGet(rc.region.globalIndex())
		return fc.emitLoad(rc.kind, rc.width, rc.offset)
	}

	p := &fc.abi.Params[e.Index]
	if p.Flattened {
		fc.localGet(fc.argSlots[e.Index] + uint32(comp))
		return nil
	}
	inner := fc.m.Types[fc.fn.Arguments[e.Index].Type].Inner
	if _, ok := inner.(ir.PointerType); ok {
		// InOut pointer: the argument value is the frame address itself.
		fc.localGet(fc.argSlots[e.Index])
		return nil
	}
	comps, cerr := componentsOf(fc.m, inner)
	if cerr != nil {
		return cerr.InFunction(fc.fn.Name)
	}
	c := comps[comp]
	fc.localGet(fc.argSlots[e.Index])
	return fc.emitLoad(c.kind, c.width, c.offset)
}

// lowerHandleValue produces the resource address of a handle-space global:
// the context block entry loaded and rebased onto the texture region.
func (fc *funcCompiler) lowerHandleValue(e ir.ExprGlobalVariable) error {
	g := &fc.m.GlobalVariables[e.Variable]
	if g.Space != ir.SpaceHandle {
		return NewError(ErrInternalError, "pointer-valued global used as a value").InFunction(fc.fn.Name)
	}
	slot := fc.c.plan.globalSlot(e.Variable)
	fc.globalGet(globalUniformBase)
	if err := fc.emitLoad(ir.ScalarUint, 4, slot.offset); err != nil {
		return err
	}
	fc.globalGet(slot.region.globalIndex())
	fc.op(opI32Add)
	return nil
}

// pointeeInner returns the value shape behind a pointer expression.
// Indexing through a pointer can resolve to an inline element type rather
// than a pointer; that inline shape is already the pointee.
func (fc *funcCompiler) pointeeInner(h ir.ExpressionHandle) (ir.TypeInner, error) {
	inner, err := fc.resolveInner(h)
	if err != nil {
		return nil, err
	}
	if ptr, ok := inner.(ir.PointerType); ok {
		return fc.m.Types[ptr.Base].Inner, nil
	}
	return inner, nil
}

func (fc *funcCompiler) lowerLoad(e ir.ExprLoad, comp int) error {
	pointee, err := fc.pointeeInner(e.Pointer)
	if err != nil {
		return err
	}
	comps, cerr := componentsOf(fc.m, pointee)
	if cerr != nil {
		return cerr.InFunction(fc.fn.Name)
	}
	c := comps[comp]
	if err := fc.lowerPointer(e.Pointer); err != nil {
		return err
	}
	return fc.emitLoad(c.kind, c.width, c.offset)
}

// lowerPointer emits code leaving the address of a memory-backed value on
// the stack.
func (fc *funcCompiler) lowerPointer(h ir.ExpressionHandle) error {
	switch e := fc.fn.Expressions[h].Kind.(type) {
	case ir.ExprGlobalVariable:
		return fc.lowerGlobalPointer(e)
	case ir.ExprLocalVariable:
		off := fc.c.plan.localOffset(fc.handle, e.Variable)
		fc.globalGet(globalPrivateBase)
		if off != 0 {
			fc.i32Const(int32(off))
			fc.op(opI32Add)
		}
		return nil
	case ir.ExprFunctionArgument:
		if fc.entry != nil || fc.abi == nil {
			return NewError(ErrInternalError, "entry-point argument has no address").InFunction(fc.fn.Name)
		}
		inner := fc.m.Types[fc.fn.Arguments[e.Index].Type].Inner
		if _, ok := inner.(ir.PointerType); !ok {
			return NewError(ErrInternalError, "value argument used as a pointer").InFunction(fc.fn.Name)
		}
		fc.localGet(fc.argSlots[e.Index])
		return nil
	case ir.ExprAccessIndex:
		return fc.lowerAccessIndexPointer(e)
	case ir.ExprAccess:
		return fc.lowerAccessPointer(e)
	default:
		return Errorf(ErrInternalError, "expression %T is not a pointer", e).InFunction(fc.fn.Name)
	}
}

func (fc *funcCompiler) lowerGlobalPointer(e ir.ExprGlobalVariable) error {
	g := &fc.m.GlobalVariables[e.Variable]
	slot := fc.c.plan.globalSlot(e.Variable)
	switch g.Space {
	case ir.SpacePrivate:
		fc.globalGet(globalPrivateBase)
		if slot.offset != 0 {
			fc.i32Const(int32(slot.offset))
			fc.op(opI32Add)
		}
		return nil
	case ir.SpaceUniform:
		// One level of indirection: the context entry holds the offset of
		// the bound block within the uniform region.
		fc.globalGet(globalUniformBase)
		if err := fc.emitLoad(ir.ScalarUint, 4, slot.offset); err != nil {
			return err
		}
		fc.globalGet(globalUniformBase)
		fc.op(opI32Add)
		return nil
	default:
		return Errorf(ErrUnsupportedFeature, "global %q in space %s has no address", g.Name, g.Space).InFunction(fc.fn.Name)
	}
}

// elementLayout describes how one indexing step moves through a pointee.
func (fc *funcCompiler) elementStride(baseInner ir.TypeInner) (uint32, *Error) {
	switch t := baseInner.(type) {
	case ir.ArrayType:
		return t.Stride, nil
	case ir.VectorType:
		return uint32(memWidth(t.Scalar)), nil
	case ir.MatrixType:
		return uint32(t.Rows) * uint32(memWidth(t.Scalar)), nil
	default:
		return 0, Errorf(ErrUnsupportedType, "cannot index through %T", baseInner)
	}
}

func (fc *funcCompiler) lowerAccessIndexPointer(e ir.ExprAccessIndex) error {
	base, err := fc.pointeeInner(e.Base)
	if err != nil {
		return err
	}
	if err := fc.lowerPointer(e.Base); err != nil {
		return err
	}
	var off uint32
	if st, ok := base.(ir.StructType); ok {
		off = st.Members[e.Index].Offset
	} else {
		stride, serr := fc.elementStride(base)
		if serr != nil {
			return serr.InFunction(fc.fn.Name)
		}
		off = stride * e.Index
	}
	if off != 0 {
		fc.i32Const(int32(off))
		fc.op(opI32Add)
	}
	return nil
}

func (fc *funcCompiler) lowerAccessPointer(e ir.ExprAccess) error {
	base, err := fc.pointeeInner(e.Base)
	if err != nil {
		return err
	}
	stride, serr := fc.elementStride(base)
	if serr != nil {
		return serr.InFunction(fc.fn.Name)
	}
	if err := fc.lowerPointer(e.Base); err != nil {
		return err
	}
	if err := fc.lowerComponent(e.Index, 0); err != nil {
		return err
	}
	fc.i32Const(int32(stride))
	fc.op(opI32Mul)
	fc.op(opI32Add)
	return nil
}

func (fc *funcCompiler) lowerUnary(e ir.ExprUnary, comp int) error {
	kind, err := fc.scalarKindOf(e.Expr)
	if err != nil {
		return err
	}
	switch e.Op {
	case ir.UnaryNegate:
		if kind == ir.ScalarFloat {
			if err := fc.lowerOperand(e.Expr, comp); err != nil {
				return err
			}
			fc.op(opF32Neg)
			return nil
		}
		fc.i32Const(0)
		if err := fc.lowerOperand(e.Expr, comp); err != nil {
			return err
		}
		fc.op(opI32Sub)
		return nil
	case ir.UnaryLogicalNot:
		if err := fc.lowerOperand(e.Expr, comp); err != nil {
			return err
		}
		fc.op(opI32Eqz)
		return nil
	case ir.UnaryBitwiseNot:
		if err := fc.lowerOperand(e.Expr, comp); err != nil {
			return err
		}
		fc.i32Const(-1)
		fc.op(opI32Xor)
		return nil
	default:
		return Errorf(ErrUnsupportedFeature, "unary operator %d", e.Op).InFunction(fc.fn.Name)
	}
}

// lowerBinary dispatches on the left operand's scalar kind. When the right
// operand's kind differs, a promotion to the left kind is inserted after
// lowering it. Matrix multiplication expands to explicit summations.
func (fc *funcCompiler) lowerBinary(e ir.ExprBinary, comp int) error {
	leftInner, err := fc.resolveInner(e.Left)
	if err != nil {
		return err
	}
	rightInner, err := fc.resolveInner(e.Right)
	if err != nil {
		return err
	}

	if e.Op == ir.BinaryMultiply {
		if done, merr := fc.lowerMatrixMultiply(e, leftInner, rightInner, comp); done || merr != nil {
			return merr
		}
	}

	lk, kerr := scalarKindOfInner(leftInner)
	if kerr != nil {
		return kerr.InFunction(fc.fn.Name)
	}
	rk, kerr := scalarKindOfInner(rightInner)
	if kerr != nil {
		return kerr.InFunction(fc.fn.Name)
	}

	if lk == ir.ScalarFloat && e.Op == ir.BinaryModulo {
		return fc.lowerFloatModulo(e, comp)
	}

	if err := fc.lowerOperand(e.Left, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(e.Right, comp); err != nil {
		return err
	}
	if rk != lk {
		if err := fc.emitPromotion(rk, lk); err != nil {
			return err
		}
	}

	opcode, oerr := binaryOpcode(e.Op, lk)
	if oerr != nil {
		return oerr.InFunction(fc.fn.Name)
	}
	fc.op(opcode)
	return nil
}

// lowerFloatModulo expands x % y, which has no native float opcode, into
// x - trunc(x/y)*y.
func (fc *funcCompiler) lowerFloatModulo(e ir.ExprBinary, comp int) error {
	if err := fc.lowerOperand(e.Left, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(e.Left, comp); err != nil {
		return err
	}
	if err := fc.lowerOperand(e.Right, comp); err != nil {
		return err
	}
	fc.op(opF32Div)
	fc.op(opF32Trunc)
	if err := fc.lowerOperand(e.Right, comp); err != nil {
		return err
	}
	fc.op(opF32Mul)
	fc.op(opF32Sub)
	return nil
}

// lowerMatrixMultiply emits the dot-product summation for the matrix and
// matrix-vector product forms. It reports false when neither operand is a
// matrix, leaving the component-wise path to handle the expression.
func (fc *funcCompiler) lowerMatrixMultiply(e ir.ExprBinary, leftInner, rightInner ir.TypeInner, comp int) (bool, error) {
	lm, lok := leftInner.(ir.MatrixType)
	rm, rok := rightInner.(ir.MatrixType)

	sum := func(terms int, term func(k int) error) error {
		for k := 0; k < terms; k++ {
			if err := term(k); err != nil {
				return err
			}
			fc.op(opF32Mul)
			if k > 0 {
				fc.op(opF32Add)
			}
		}
		return nil
	}

	switch {
	case lok && rok:
		// (A·B)[col][row] = sum_k A[k][row] * B[col][k].
		rows := int(lm.Rows)
		col, row := comp/rows, comp%rows
		return true, sum(int(lm.Columns), func(k int) error {
			if err := fc.lowerComponent(e.Left, k*rows+row); err != nil {
				return err
			}
			return fc.lowerComponent(e.Right, col*int(rm.Rows)+k)
		})
	case lok:
		if _, ok := rightInner.(ir.VectorType); !ok {
			break
		}
		// (A·v)[row] = sum_k A[k][row] * v[k].
		rows := int(lm.Rows)
		return true, sum(int(lm.Columns), func(k int) error {
			if err := fc.lowerComponent(e.Left, k*rows+comp); err != nil {
				return err
			}
			return fc.lowerComponent(e.Right, k)
		})
	case rok:
		if _, ok := leftInner.(ir.VectorType); !ok {
			break
		}
		// (v·B)[col] = sum_k v[k] * B[col][k].
		rows := int(rm.Rows)
		return true, sum(rows, func(k int) error {
			if err := fc.lowerComponent(e.Left, k); err != nil {
				return err
			}
			return fc.lowerComponent(e.Right, comp*rows+k)
		})
	}
	return false, nil
}

// emitPromotion converts the value on top of the stack from one scalar
// kind to another.
func (fc *funcCompiler) emitPromotion(from, to ir.ScalarKind) error {
	switch {
	case from == to:
		return nil
	case to == ir.ScalarFloat && from == ir.ScalarSint:
		fc.op(opF32ConvertI32S)
	case to == ir.ScalarFloat && from == ir.ScalarUint:
		fc.op(opF32ConvertI32U)
	case to == ir.ScalarSint && from == ir.ScalarFloat:
		fc.op(opI32TruncF32S)
	case to == ir.ScalarUint && from == ir.ScalarFloat:
		fc.op(opI32TruncF32U)
	case (to == ir.ScalarSint || to == ir.ScalarUint) && (from == ir.ScalarSint || from == ir.ScalarUint):
		// Same representation.
	case to == ir.ScalarBool || from == ir.ScalarBool:
		return Errorf(ErrTypeConversion, "no implicit conversion between bool and %s", from).InFunction(fc.fn.Name)
	default:
		return Errorf(ErrTypeConversion, "no conversion from %s to %s", from, to).InFunction(fc.fn.Name)
	}
	return nil
}

// binaryOpcode selects the native opcode for an operator and scalar kind.
func binaryOpcode(op ir.BinaryOperator, kind ir.ScalarKind) (byte, *Error) {
	float := kind == ir.ScalarFloat
	signed := kind == ir.ScalarSint

	pick := func(f, s, u byte) byte {
		if float {
			return f
		}
		if signed {
			return s
		}
		return u
	}

	switch op {
	case ir.BinaryAdd:
		return pick(opF32Add, opI32Add, opI32Add), nil
	case ir.BinarySubtract:
		return pick(opF32Sub, opI32Sub, opI32Sub), nil
	case ir.BinaryMultiply:
		return pick(opF32Mul, opI32Mul, opI32Mul), nil
	case ir.BinaryDivide:
		return pick(opF32Div, opI32DivS, opI32DivU), nil
	case ir.BinaryModulo:
		if float {
			return 0, NewError(ErrInternalError, "float modulo must be expanded")
		}
		return pick(0, opI32RemS, opI32RemU), nil
	case ir.BinaryEqual:
		return pick(opF32Eq, opI32Eq, opI32Eq), nil
	case ir.BinaryNotEqual:
		return pick(opF32Ne, opI32Ne, opI32Ne), nil
	case ir.BinaryLess:
		return pick(opF32Lt, opI32LtS, opI32LtU), nil
	case ir.BinaryLessEqual:
		return pick(opF32Le, opI32LeS, opI32LeU), nil
	case ir.BinaryGreater:
		return pick(opF32Gt, opI32GtS, opI32GtU), nil
	case ir.BinaryGreaterEqual:
		return pick(opF32Ge, opI32GeS, opI32GeU), nil
	case ir.BinaryAnd, ir.BinaryLogicalAnd:
		if float {
			return 0, NewError(ErrTypeConversion, "bitwise operator on float operands")
		}
		return opI32And, nil
	case ir.BinaryInclusiveOr, ir.BinaryLogicalOr:
		if float {
			return 0, NewError(ErrTypeConversion, "bitwise operator on float operands")
		}
		return opI32Or, nil
	case ir.BinaryExclusiveOr:
		if float {
			return 0, NewError(ErrTypeConversion, "bitwise operator on float operands")
		}
		return opI32Xor, nil
	case ir.BinaryShiftLeft:
		return opI32Shl, nil
	case ir.BinaryShiftRight:
		if signed {
			return opI32ShrS, nil
		}
		return opI32ShrU, nil
	default:
		return 0, Errorf(ErrUnsupportedFeature, "binary operator %d", op)
	}
}

func (fc *funcCompiler) lowerAs(e ir.ExprAs, comp int) error {
	from, err := fc.scalarKindOf(e.Expr)
	if err != nil {
		return err
	}
	if err := fc.lowerOperand(e.Expr, comp); err != nil {
		return err
	}
	if e.Convert != nil {
		return fc.emitPromotion(from, e.Kind)
	}
	// Bitcast: reinterpret between the i32 and f32 representations.
	switch {
	case from == e.Kind:
	case from == ir.ScalarFloat:
		fc.op(opI32ReinterpretF32)
	case e.Kind == ir.ScalarFloat:
		fc.op(opF32ReinterpretI32)
	}
	return nil
}

func (fc *funcCompiler) lowerImageSample(e ir.ExprImageSample, comp int) error {
	idx, err := fc.c.requireTexHelper(texHelperSample)
	if err != nil {
		return err
	}
	if err := fc.lowerComponent(e.Image, 0); err != nil {
		return err
	}
	if err := fc.lowerComponent(e.Coordinate, 0); err != nil {
		return err
	}
	if err := fc.lowerComponent(e.Coordinate, 1); err != nil {
		return err
	}
	fc.i32Const(int32(comp))
	fc.call(idx)
	return nil
}

func (fc *funcCompiler) lowerImageLoad(e ir.ExprImageLoad, comp int) error {
	idx, err := fc.c.requireTexHelper(texHelperLoad)
	if err != nil {
		return err
	}
	if err := fc.lowerComponent(e.Image, 0); err != nil {
		return err
	}
	if err := fc.lowerComponent(e.Coordinate, 0); err != nil {
		return err
	}
	if err := fc.lowerComponent(e.Coordinate, 1); err != nil {
		return err
	}
	fc.i32Const(int32(comp))
	fc.call(idx)
	return nil
}

func (fc *funcCompiler) lowerImageQuery(e ir.ExprImageQuery, comp int) error {
	if _, ok := e.Query.(ir.ImageQuerySize); !ok {
		return Errorf(ErrUnsupportedFeature, "image query %T", e.Query).InFunction(fc.fn.Name)
	}
	idx, err := fc.c.requireTexHelper(texHelperSize)
	if err != nil {
		return err
	}
	if err := fc.lowerComponent(e.Image, 0); err != nil {
		return err
	}
	fc.i32Const(int32(comp))
	fc.call(idx)
	return nil
}
