// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"github.com/gogpu/shadevm/ir"
)

// flattenThreshold is the largest byte size passed as native values.
// maxFlattenedSlots caps the native scalar slots across a whole signature.
const (
	flattenThreshold  = 16
	maxFlattenedSlots = 16
)

// ParamSemantic describes the data flow of a frame-passed parameter.
type ParamSemantic uint8

const (
	// SemanticIn is a plain value parameter: copied into the frame, never
	// copied back.
	SemanticIn ParamSemantic = iota

	// SemanticInOut is a writable-pointer parameter: copied in and, in
	// principle, copied back out after the call.
	SemanticInOut
)

// String returns the semantic name as used in diagnostics.
func (s ParamSemantic) String() string {
	if s == SemanticInOut {
		return "inout"
	}
	return "in"
}

// ParamABI describes how one parameter or result crosses a call boundary.
// A flattened value becomes native scalar parameters; a frame value is
// copied into the caller's frame allocation and passed as an i32 pointer.
type ParamABI struct {
	// Flattened selects native value passing over frame passing.
	Flattened bool

	// ValTypes lists the native value types of a flattened value, one per
	// scalar component.
	ValTypes []ValType

	// Size is the packed byte size of the value.
	Size uint32

	// Offset is the byte offset within the call frame. Frame shape only.
	Offset uint32

	// Align is the required frame alignment. Frame shape only.
	Align uint32

	// CopyIn and CopyOut describe the frame copy discipline.
	CopyIn  bool
	CopyOut bool

	// Semantic is In for plain values and InOut for writable pointers.
	Semantic ParamSemantic
}

// FunctionABI is the complete calling convention of one function.
type FunctionABI struct {
	// Params holds one entry per IR argument, in order.
	Params []ParamABI

	// Result describes the return value, or nil for none.
	Result *ParamABI

	// UsesFrame is true when any parameter or the result is frame-passed.
	UsesFrame bool

	// FrameSize is the total frame bytes one call of this function needs,
	// result space included.
	FrameSize uint32

	// FrameAlignment is the strictest alignment among frame entries.
	FrameAlignment uint32
}

// ClassifyFunction computes the calling convention for fn. Parameters are
// classified left to right: each frame parameter's offset is the running
// offset rounded up to its own alignment. Result frame space, if any, is
// appended after all parameter frame space.
func ClassifyFunction(m *ir.Module, fn *ir.Function) (*FunctionABI, error) {
	abi := &FunctionABI{FrameAlignment: 1}
	slots := 0
	running := uint32(0)

	place := func(p *ParamABI) error {
		if p.Flattened {
			slots += len(p.ValTypes)
			if slots > maxFlattenedSlots {
				return Errorf(ErrTooManyParameters,
					"signature needs %d native slots, limit is %d", slots, maxFlattenedSlots).InFunction(fn.Name)
			}
			return nil
		}
		p.Offset = roundUp(running, p.Align)
		running = p.Offset + p.Size
		if p.Align > abi.FrameAlignment {
			abi.FrameAlignment = p.Align
		}
		abi.UsesFrame = true
		return nil
	}

	for i := range fn.Arguments {
		p, err := classifyType(m, m.Types[fn.Arguments[i].Type].Inner)
		if err != nil {
			return nil, err.InFunction(fn.Name)
		}
		if err := place(p); err != nil {
			return nil, err
		}
		abi.Params = append(abi.Params, *p)
	}

	if fn.Result != nil {
		p, err := classifyType(m, m.Types[fn.Result.Type].Inner)
		if err != nil {
			return nil, err.InFunction(fn.Name)
		}
		// The callee writes the result; nothing is copied in.
		p.CopyIn = false
		p.CopyOut = false
		if err := place(p); err != nil {
			return nil, err
		}
		abi.Result = p
	}

	abi.FrameSize = running
	return abi, nil
}

// classifyType classifies one value type as flattened or frame-passed.
func classifyType(m *ir.Module, inner ir.TypeInner) (*ParamABI, *Error) {
	switch t := inner.(type) {
	case ir.ScalarType:
		vt, err := scalarValType(t)
		if err != nil {
			return nil, err
		}
		return flattenedABI([]ValType{vt}, uint32(memWidth(t))), nil

	case ir.VectorType:
		return classifyFlat(m, t, uint32(memWidth(t.Scalar)))

	case ir.MatrixType:
		return classifyFlat(m, t, uint32(memWidth(t.Scalar)))

	case ir.StructType:
		comps, err := componentsOf(m, t)
		if err != nil {
			return nil, err
		}
		if t.Span <= flattenThreshold && len(comps) <= maxFlattenedSlots {
			if vts, ok := flattenComponents(comps); ok {
				return flattenedABI(vts, t.Span), nil
			}
		}
		align, err := typeAlign(m, t)
		if err != nil {
			return nil, err
		}
		return frameABI(t.Span, align), nil

	case ir.ArrayType:
		if t.Size.Constant == nil {
			return nil, NewError(ErrDynamicArrayInSignature, "runtime-sized array cannot cross a call boundary")
		}
		align, err := typeAlign(m, t)
		if err != nil {
			return nil, err
		}
		return classifyFlat(m, t, align)

	case ir.PointerType:
		if t.Space == ir.SpaceFunction || t.Space == ir.SpacePrivate {
			// Writable pointee: pass a frame copy both ways.
			pointee := m.Types[t.Base].Inner
			size, err := typeSize(m, pointee)
			if err != nil {
				return nil, err
			}
			align, err := typeAlign(m, pointee)
			if err != nil {
				return nil, err
			}
			p := frameABI(size, align)
			p.CopyOut = true
			p.Semantic = SemanticInOut
			return p, nil
		}
		return flattenedABI([]ValType{ValI32}, 4), nil

	case ir.ImageType, ir.SamplerType:
		return flattenedABI([]ValType{ValI32}, 4), nil

	case ir.AtomicType:
		return flattenedABI([]ValType{ValI32}, 4), nil

	default:
		return nil, Errorf(ErrUnsupportedType, "%T cannot cross a call boundary", inner)
	}
}

// classifyFlat applies the shared threshold rule to a contiguous value type:
// flattened below the byte and slot thresholds, frame-passed above.
func classifyFlat(m *ir.Module, inner ir.TypeInner, align uint32) (*ParamABI, *Error) {
	size, err := typeSize(m, inner)
	if err != nil {
		return nil, err
	}
	comps, err := componentsOf(m, inner)
	if err != nil {
		return nil, err
	}
	if size <= flattenThreshold && len(comps) <= maxFlattenedSlots {
		if vts, ok := flattenComponents(comps); ok {
			return flattenedABI(vts, size), nil
		}
	}
	return frameABI(size, align), nil
}

// flattenComponents maps each component to its native value type. It fails
// only when a component has no native representation, which componentsOf has
// already rejected; the bool keeps the call sites honest.
func flattenComponents(comps []component) ([]ValType, bool) {
	vts := make([]ValType, 0, len(comps))
	for _, c := range comps {
		vt, err := c.valType()
		if err != nil {
			return nil, false
		}
		vts = append(vts, vt)
	}
	return vts, true
}

func flattenedABI(vts []ValType, size uint32) *ParamABI {
	return &ParamABI{
		Flattened: true,
		ValTypes:  vts,
		Size:      size,
		CopyIn:    true,
		Semantic:  SemanticIn,
	}
}

func frameABI(size, align uint32) *ParamABI {
	return &ParamABI{
		Size:     size,
		Align:    align,
		CopyIn:   true,
		Semantic: SemanticIn,
	}
}

// ParamValTypes returns the native parameter list actually used by calls:
// flattened parameters contribute one slot per component, frame parameters
// one i32 pointer, and a frame result one trailing i32 pointer.
func (a *FunctionABI) ParamValTypes() []ValType {
	var vts []ValType
	for i := range a.Params {
		p := &a.Params[i]
		if p.Flattened {
			vts = append(vts, p.ValTypes...)
		} else {
			vts = append(vts, ValI32)
		}
	}
	if a.Result != nil && !a.Result.Flattened {
		vts = append(vts, ValI32)
	}
	return vts
}

// ResultValTypes returns the native result list: the component types of a
// flattened result, or nothing for a frame result, which is written through
// the trailing pointer parameter instead.
func (a *FunctionABI) ResultValTypes() []ValType {
	if a.Result == nil || !a.Result.Flattened {
		return nil
	}
	return a.Result.ValTypes
}
