package ir

import "fmt"

// ResolveExpressionType resolves the type of an expression in a function.
// This is the type-resolution query backends build on: given a handle, it
// returns either a reference into the module type arena or an inline type.
//
//nolint:gocyclo,cyclop // type resolution handles every expression kind
func ResolveExpressionType(m *Module, fn *Function, handle ExpressionHandle) (TypeResolution, error) {
	if int(handle) >= len(fn.Expressions) {
		return TypeResolution{}, fmt.Errorf("expression handle %d out of range (max %d)", handle, len(fn.Expressions))
	}

	switch kind := fn.Expressions[handle].Kind.(type) {
	case Literal:
		return resolveLiteralType(kind)
	case ExprZeroValue:
		return ResolutionOf(kind.Type), nil
	case ExprCompose:
		return ResolutionOf(kind.Type), nil
	case ExprAccess:
		return resolveIndexedType(m, fn, kind.Base, nil)
	case ExprAccessIndex:
		idx := kind.Index
		return resolveIndexedType(m, fn, kind.Base, &idx)
	case ExprSplat:
		return resolveSplatType(m, fn, kind)
	case ExprSwizzle:
		return resolveSwizzleType(m, fn, kind)
	case ExprFunctionArgument:
		if int(kind.Index) >= len(fn.Arguments) {
			return TypeResolution{}, fmt.Errorf("function argument index %d out of range", kind.Index)
		}
		return ResolutionOf(fn.Arguments[kind.Index].Type), nil
	case ExprGlobalVariable:
		if int(kind.Variable) >= len(m.GlobalVariables) {
			return TypeResolution{}, fmt.Errorf("global variable %d out of range", kind.Variable)
		}
		g := m.GlobalVariables[kind.Variable]
		// Handle-space globals (images, samplers) are opaque values; all
		// other globals are references that must be loaded through.
		if g.Space == SpaceHandle {
			return ResolutionOf(g.Type), nil
		}
		return TypeResolution{Value: PointerType{Base: g.Type, Space: g.Space}}, nil
	case ExprLocalVariable:
		if int(kind.Variable) >= len(fn.LocalVars) {
			return TypeResolution{}, fmt.Errorf("local variable %d out of range", kind.Variable)
		}
		return TypeResolution{Value: PointerType{
			Base:  fn.LocalVars[kind.Variable].Type,
			Space: SpaceFunction,
		}}, nil
	case ExprLoad:
		return resolveLoadType(m, fn, kind)
	case ExprUnary:
		return ResolveExpressionType(m, fn, kind.Expr)
	case ExprBinary:
		return resolveBinaryType(m, fn, kind)
	case ExprSelect:
		return ResolveExpressionType(m, fn, kind.Accept)
	case ExprMath:
		return resolveMathType(m, fn, kind)
	case ExprAs:
		return resolveAsType(m, fn, kind)
	case ExprCallResult:
		if int(kind.Function) >= len(m.Functions) {
			return TypeResolution{}, fmt.Errorf("function %d out of range", kind.Function)
		}
		result := m.Functions[kind.Function].Result
		if result == nil {
			return TypeResolution{}, fmt.Errorf("call result of %q, which has no return type", m.Functions[kind.Function].Name)
		}
		return ResolutionOf(result.Type), nil
	case ExprImageSample:
		return resolveImageSampleType(m, fn, kind)
	case ExprImageLoad:
		return TypeResolution{Value: VectorType{
			Size:   Vec4,
			Scalar: ScalarType{Kind: ScalarFloat, Width: 4},
		}}, nil
	case ExprImageQuery:
		switch kind.Query.(type) {
		case ImageQuerySize:
			return TypeResolution{Value: VectorType{
				Size:   Vec2,
				Scalar: ScalarType{Kind: ScalarUint, Width: 4},
			}}, nil
		default:
			return TypeResolution{}, fmt.Errorf("unknown image query: %T", kind.Query)
		}
	default:
		return TypeResolution{}, fmt.Errorf("unsupported expression kind: %T", kind)
	}
}

func resolveLiteralType(lit Literal) (TypeResolution, error) {
	switch v := lit.Value.(type) {
	case LiteralF32:
		return TypeResolution{Value: ScalarType{Kind: ScalarFloat, Width: 4}}, nil
	case LiteralI32:
		return TypeResolution{Value: ScalarType{Kind: ScalarSint, Width: 4}}, nil
	case LiteralU32:
		return TypeResolution{Value: ScalarType{Kind: ScalarUint, Width: 4}}, nil
	case LiteralBool:
		return TypeResolution{Value: ScalarType{Kind: ScalarBool, Width: 1}}, nil
	case LiteralAbstractInt:
		return TypeResolution{Value: ScalarType{Kind: ScalarAbstractInt, Width: 8}}, nil
	case LiteralAbstractFloat:
		return TypeResolution{Value: ScalarType{Kind: ScalarAbstractFloat, Width: 8}}, nil
	default:
		return TypeResolution{}, fmt.Errorf("unknown literal type: %T", v)
	}
}

// resolveIndexedType resolves the element type produced by indexing into the
// base expression. A nil index means a computed index (no struct access);
// otherwise the constant index also selects struct members. Indexing through
// a pointer yields a pointer to the element in the same address space.
func resolveIndexedType(m *Module, fn *Function, base ExpressionHandle, index *uint32) (TypeResolution, error) {
	baseType, err := ResolveExpressionType(m, fn, base)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("access base: %w", err)
	}

	inner := baseType.Inner(m)
	if ptr, ok := inner.(PointerType); ok {
		elem, err := indexedElement(m, m.Types[ptr.Base].Inner, index)
		if err != nil {
			return TypeResolution{}, err
		}
		// The element of a pointer access is again a pointer. Inline
		// pointer types carry the element as a handle when available.
		if elem.Handle != nil {
			return TypeResolution{Value: PointerType{Base: *elem.Handle, Space: ptr.Space}}, nil
		}
		return elem, nil
	}

	return indexedElement(m, inner, index)
}

func indexedElement(m *Module, inner TypeInner, index *uint32) (TypeResolution, error) {
	switch t := inner.(type) {
	case ArrayType:
		return ResolutionOf(t.Base), nil
	case VectorType:
		return TypeResolution{Value: t.Scalar}, nil
	case MatrixType:
		return TypeResolution{Value: VectorType{Size: t.Rows, Scalar: t.Scalar}}, nil
	case StructType:
		if index == nil {
			return TypeResolution{}, fmt.Errorf("struct access requires a constant index")
		}
		if int(*index) >= len(t.Members) {
			return TypeResolution{}, fmt.Errorf("struct member index %d out of range", *index)
		}
		return ResolutionOf(t.Members[*index].Type), nil
	default:
		return TypeResolution{}, fmt.Errorf("cannot index into type %T", t)
	}
}

func resolveSplatType(m *Module, fn *Function, expr ExprSplat) (TypeResolution, error) {
	valueType, err := ResolveExpressionType(m, fn, expr.Value)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("splat value: %w", err)
	}
	scalar, ok := valueType.Inner(m).(ScalarType)
	if !ok {
		return TypeResolution{}, fmt.Errorf("splat value must be scalar, got %T", valueType.Inner(m))
	}
	return TypeResolution{Value: VectorType{Size: expr.Size, Scalar: scalar}}, nil
}

func resolveSwizzleType(m *Module, fn *Function, expr ExprSwizzle) (TypeResolution, error) {
	vectorType, err := ResolveExpressionType(m, fn, expr.Vector)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("swizzle vector: %w", err)
	}
	vec, ok := vectorType.Inner(m).(VectorType)
	if !ok {
		return TypeResolution{}, fmt.Errorf("swizzle base must be vector, got %T", vectorType.Inner(m))
	}
	return TypeResolution{Value: VectorType{Size: expr.Size, Scalar: vec.Scalar}}, nil
}

func resolveLoadType(m *Module, fn *Function, expr ExprLoad) (TypeResolution, error) {
	pointerType, err := ResolveExpressionType(m, fn, expr.Pointer)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("load pointer: %w", err)
	}
	ptr, ok := pointerType.Inner(m).(PointerType)
	if !ok {
		return TypeResolution{}, fmt.Errorf("load requires pointer type, got %T", pointerType.Inner(m))
	}
	return ResolutionOf(ptr.Base), nil
}

func resolveBinaryType(m *Module, fn *Function, expr ExprBinary) (TypeResolution, error) {
	leftType, err := ResolveExpressionType(m, fn, expr.Left)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("binary left: %w", err)
	}

	switch expr.Op {
	case BinaryEqual, BinaryNotEqual, BinaryLess, BinaryLessEqual, BinaryGreater, BinaryGreaterEqual:
		if vec, ok := leftType.Inner(m).(VectorType); ok {
			return TypeResolution{Value: VectorType{
				Size:   vec.Size,
				Scalar: ScalarType{Kind: ScalarBool, Width: 1},
			}}, nil
		}
		return TypeResolution{Value: ScalarType{Kind: ScalarBool, Width: 1}}, nil

	case BinaryLogicalAnd, BinaryLogicalOr:
		return TypeResolution{Value: ScalarType{Kind: ScalarBool, Width: 1}}, nil

	case BinaryMultiply:
		rightType, rightErr := ResolveExpressionType(m, fn, expr.Right)
		if rightErr != nil {
			return TypeResolution{}, fmt.Errorf("binary right: %w", rightErr)
		}
		return resolveMulResultType(m, leftType, rightType), nil

	default:
		// Scalar op vector broadcasts to the vector side.
		rightType, rightErr := ResolveExpressionType(m, fn, expr.Right)
		if rightErr == nil {
			_, leftIsScalar := leftType.Inner(m).(ScalarType)
			_, rightIsVec := rightType.Inner(m).(VectorType)
			if leftIsScalar && rightIsVec {
				return rightType, nil
			}
		}
		return leftType, nil
	}
}

// resolveMulResultType determines the result type of a multiplication:
// scalar*vec -> vec, scalar*mat -> mat, mat*vec -> vec(rows),
// vec*mat -> vec(cols), mat*mat -> mat(right cols, left rows).
func resolveMulResultType(m *Module, left, right TypeResolution) TypeResolution {
	leftInner := left.Inner(m)
	rightInner := right.Inner(m)

	_, leftIsScalar := leftInner.(ScalarType)
	_, rightIsScalar := rightInner.(ScalarType)
	_, leftIsVec := leftInner.(VectorType)
	_, rightIsVec := rightInner.(VectorType)
	leftMat, leftIsMat := leftInner.(MatrixType)
	rightMat, rightIsMat := rightInner.(MatrixType)

	switch {
	case leftIsScalar && (rightIsVec || rightIsMat):
		return right
	case (leftIsVec || leftIsMat) && rightIsScalar:
		return left
	case leftIsMat && rightIsVec:
		return TypeResolution{Value: VectorType{Size: leftMat.Rows, Scalar: leftMat.Scalar}}
	case leftIsVec && rightIsMat:
		return TypeResolution{Value: VectorType{Size: rightMat.Columns, Scalar: rightMat.Scalar}}
	case leftIsMat && rightIsMat:
		return TypeResolution{Value: MatrixType{Columns: rightMat.Columns, Rows: leftMat.Rows, Scalar: leftMat.Scalar}}
	default:
		return left
	}
}

func resolveMathType(m *Module, fn *Function, expr ExprMath) (TypeResolution, error) {
	argType, err := ResolveExpressionType(m, fn, expr.Arg)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("math argument: %w", err)
	}

	switch expr.Fun {
	case MathDot:
		if vec, ok := argType.Inner(m).(VectorType); ok {
			return TypeResolution{Value: vec.Scalar}, nil
		}
		return argType, nil

	case MathLength, MathDistance:
		return TypeResolution{Value: ScalarType{Kind: ScalarFloat, Width: 4}}, nil

	case MathOuter:
		vec, ok := argType.Inner(m).(VectorType)
		if !ok {
			return TypeResolution{}, fmt.Errorf("outer product requires vector operands")
		}
		if expr.Arg1 == nil {
			return TypeResolution{}, fmt.Errorf("outer product requires two operands")
		}
		rightType, err := ResolveExpressionType(m, fn, *expr.Arg1)
		if err != nil {
			return TypeResolution{}, fmt.Errorf("outer right: %w", err)
		}
		rvec, ok := rightType.Inner(m).(VectorType)
		if !ok {
			return TypeResolution{}, fmt.Errorf("outer product requires vector operands")
		}
		return TypeResolution{Value: MatrixType{Columns: rvec.Size, Rows: vec.Size, Scalar: vec.Scalar}}, nil

	case MathTranspose:
		mat, ok := argType.Inner(m).(MatrixType)
		if !ok {
			return TypeResolution{}, fmt.Errorf("transpose requires a matrix operand")
		}
		return TypeResolution{Value: MatrixType{Columns: mat.Rows, Rows: mat.Columns, Scalar: mat.Scalar}}, nil

	default:
		return argType, nil
	}
}

func resolveAsType(m *Module, fn *Function, expr ExprAs) (TypeResolution, error) {
	exprType, err := ResolveExpressionType(m, fn, expr.Expr)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("as expr: %w", err)
	}

	if expr.Convert != nil {
		target := ScalarType{Kind: expr.Kind, Width: *expr.Convert}
		if vec, ok := exprType.Inner(m).(VectorType); ok {
			return TypeResolution{Value: VectorType{Size: vec.Size, Scalar: target}}, nil
		}
		return TypeResolution{Value: target}, nil
	}

	// Bitcast preserves the shape, only the kind changes.
	switch t := exprType.Inner(m).(type) {
	case ScalarType:
		return TypeResolution{Value: ScalarType{Kind: expr.Kind, Width: t.Width}}, nil
	case VectorType:
		return TypeResolution{Value: VectorType{
			Size:   t.Size,
			Scalar: ScalarType{Kind: expr.Kind, Width: t.Scalar.Width},
		}}, nil
	default:
		return exprType, nil
	}
}

func resolveImageSampleType(m *Module, fn *Function, expr ExprImageSample) (TypeResolution, error) {
	imageType, err := ResolveExpressionType(m, fn, expr.Image)
	if err != nil {
		return TypeResolution{}, fmt.Errorf("image sample image: %w", err)
	}
	img, ok := imageType.Inner(m).(ImageType)
	if !ok {
		return TypeResolution{}, fmt.Errorf("image sample requires image type, got %T", imageType.Inner(m))
	}
	if img.Class == ImageClassDepth {
		return TypeResolution{Value: ScalarType{Kind: ScalarFloat, Width: 4}}, nil
	}
	return TypeResolution{Value: VectorType{
		Size:   Vec4,
		Scalar: ScalarType{Kind: ScalarFloat, Width: 4},
	}}, nil
}
