// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"github.com/gogpu/shadevm/ir"
)

// component describes one scalar inside a lowered value: its scalar kind,
// its byte width, and its packed byte offset from the start of the value.
type component struct {
	kind   ir.ScalarKind
	width  uint8
	offset uint32
}

// valType maps the component's scalar kind to the native value type.
func (c component) valType() (ValType, *Error) {
	return scalarValType(ir.ScalarType{Kind: c.kind, Width: c.width})
}

// scalarValType maps an IR scalar to a native value type. Booleans are i32
// with values 0 and 1.
func scalarValType(s ir.ScalarType) (ValType, *Error) {
	switch s.Kind {
	case ir.ScalarBool:
		return ValI32, nil
	case ir.ScalarSint, ir.ScalarUint:
		switch s.Width {
		case 1, 4:
			return ValI32, nil
		case 8:
			return ValI64, nil
		}
	case ir.ScalarFloat:
		switch s.Width {
		case 4:
			return ValF32, nil
		case 8:
			return ValF64, nil
		}
	}
	return 0, Errorf(ErrUnsupportedType, "scalar %s of width %d has no native representation", s.Kind, s.Width)
}

// componentsOf flattens a value type into its ordered scalar components with
// packed byte offsets. Vectors and matrix columns are packed tightly; struct
// members sit at their declared offsets; array elements are placed at
// multiples of the declared stride. Handle types (images, samplers) are not
// memory values and are rejected.
func componentsOf(m *ir.Module, inner ir.TypeInner) ([]component, *Error) {
	var comps []component
	if err := appendComponents(m, inner, 0, &comps); err != nil {
		return nil, err
	}
	return comps, nil
}

func appendComponents(m *ir.Module, inner ir.TypeInner, base uint32, comps *[]component) *Error {
	switch t := inner.(type) {
	case ir.ScalarType:
		if t.Kind == ir.ScalarAbstractInt || t.Kind == ir.ScalarAbstractFloat {
			return NewError(ErrUnsupportedType, "abstract scalar reached the backend")
		}
		if _, err := scalarValType(t); err != nil {
			return err
		}
		*comps = append(*comps, component{kind: t.Kind, width: memWidth(t), offset: base})
		return nil
	case ir.VectorType:
		w := uint32(memWidth(t.Scalar))
		for i := uint32(0); i < uint32(t.Size); i++ {
			if err := appendComponents(m, t.Scalar, base+i*w, comps); err != nil {
				return err
			}
		}
		return nil
	case ir.MatrixType:
		col := ir.VectorType{Size: t.Rows, Scalar: t.Scalar}
		colSize := uint32(t.Rows) * uint32(memWidth(t.Scalar))
		for c := uint32(0); c < uint32(t.Columns); c++ {
			if err := appendComponents(m, col, base+c*colSize, comps); err != nil {
				return err
			}
		}
		return nil
	case ir.ArrayType:
		if t.Size.Constant == nil {
			return NewError(ErrUnsupportedType, "runtime-sized array has no flat component layout")
		}
		elem := m.Types[t.Base].Inner
		for i := uint32(0); i < *t.Size.Constant; i++ {
			if err := appendComponents(m, elem, base+i*t.Stride, comps); err != nil {
				return err
			}
		}
		return nil
	case ir.StructType:
		for _, member := range t.Members {
			if err := appendComponents(m, m.Types[member.Type].Inner, base+member.Offset, comps); err != nil {
				return err
			}
		}
		return nil
	default:
		return Errorf(ErrUnsupportedType, "%T has no flat component layout", inner)
	}
}

// memWidth is the in-memory byte width of a scalar. Booleans occupy one
// byte in memory regardless of their i32 stack representation.
func memWidth(s ir.ScalarType) uint8 {
	if s.Kind == ir.ScalarBool {
		return 1
	}
	return s.Width
}

// typeSize returns the packed byte size of a value type. Structs use their
// declared span; arrays use stride times element count.
func typeSize(m *ir.Module, inner ir.TypeInner) (uint32, *Error) {
	switch t := inner.(type) {
	case ir.ScalarType:
		return uint32(memWidth(t)), nil
	case ir.VectorType:
		return uint32(t.Size) * uint32(memWidth(t.Scalar)), nil
	case ir.MatrixType:
		return uint32(t.Columns) * uint32(t.Rows) * uint32(memWidth(t.Scalar)), nil
	case ir.ArrayType:
		if t.Size.Constant == nil {
			return 0, NewError(ErrUnsupportedType, "runtime-sized array has no fixed size")
		}
		return t.Stride * *t.Size.Constant, nil
	case ir.StructType:
		return t.Span, nil
	case ir.AtomicType:
		return uint32(memWidth(t.Scalar)), nil
	default:
		return 0, Errorf(ErrUnsupportedType, "%T has no byte size", inner)
	}
}

// typeAlign returns the required byte alignment of a value type: the widest
// scalar it contains.
func typeAlign(m *ir.Module, inner ir.TypeInner) (uint32, *Error) {
	switch t := inner.(type) {
	case ir.ScalarType:
		return uint32(memWidth(t)), nil
	case ir.VectorType:
		return uint32(memWidth(t.Scalar)), nil
	case ir.MatrixType:
		return uint32(memWidth(t.Scalar)), nil
	case ir.ArrayType:
		return typeAlign(m, m.Types[t.Base].Inner)
	case ir.StructType:
		align := uint32(1)
		for _, member := range t.Members {
			a, err := typeAlign(m, m.Types[member.Type].Inner)
			if err != nil {
				return 0, err
			}
			if a > align {
				align = a
			}
		}
		return align, nil
	case ir.AtomicType:
		return uint32(memWidth(t.Scalar)), nil
	default:
		return 0, Errorf(ErrUnsupportedType, "%T has no alignment", inner)
	}
}

// componentCount returns the number of scalar components in a value type.
func componentCount(m *ir.Module, inner ir.TypeInner) (int, *Error) {
	comps, err := componentsOf(m, inner)
	if err != nil {
		return 0, err
	}
	return len(comps), nil
}

// roundUp rounds v up to the next multiple of align, which must be a power
// of two.
func roundUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
