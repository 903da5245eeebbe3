package ir

import "strconv"

// TypeRegistry deduplicates structurally identical types while building a
// module programmatically. Handles it returns are stable indices into the
// slice returned by Types.
type TypeRegistry struct {
	types   []Type
	typeMap map[string]TypeHandle
	keyBuf  []byte // reusable buffer for structural keys
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types:   make([]Type, 0, 16),
		typeMap: make(map[string]TypeHandle, 16),
		keyBuf:  make([]byte, 0, 64),
	}
}

// GetOrCreate returns the handle of a structurally equal registered type, or
// registers the type under name and returns the new handle.
func (r *TypeRegistry) GetOrCreate(name string, inner TypeInner) TypeHandle {
	key := r.structuralKey(inner)
	if handle, exists := r.typeMap[key]; exists {
		return handle
	}
	handle := TypeHandle(len(r.types))
	r.types = append(r.types, Type{Name: name, Inner: inner})
	r.typeMap[key] = handle
	return handle
}

// Types returns the registered type arena, ready for Module.Types.
func (r *TypeRegistry) Types() []Type {
	return r.types
}

// structuralKey builds a unique key from the type structure. Struct and
// array types key on their member/element handles, so inner types must be
// registered before outer ones.
func (r *TypeRegistry) structuralKey(inner TypeInner) string {
	b := r.keyBuf[:0]

	switch t := inner.(type) {
	case ScalarType:
		b = append(b, "scalar:"...)
		b = strconv.AppendUint(b, uint64(t.Kind), 10)
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Width), 10)
	case VectorType:
		b = append(b, "vec:"...)
		b = strconv.AppendUint(b, uint64(t.Size), 10)
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Scalar.Kind), 10)
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Scalar.Width), 10)
	case MatrixType:
		b = append(b, "mat:"...)
		b = strconv.AppendUint(b, uint64(t.Columns), 10)
		b = append(b, 'x')
		b = strconv.AppendUint(b, uint64(t.Rows), 10)
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Scalar.Kind), 10)
	case ArrayType:
		b = append(b, "array:"...)
		b = strconv.AppendUint(b, uint64(t.Base), 10)
		b = append(b, ':')
		if t.Size.Constant != nil {
			b = strconv.AppendUint(b, uint64(*t.Size.Constant), 10)
		} else {
			b = append(b, "dyn"...)
		}
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Stride), 10)
	case StructType:
		b = append(b, "struct:"...)
		for _, member := range t.Members {
			b = strconv.AppendUint(b, uint64(member.Type), 10)
			b = append(b, '@')
			b = strconv.AppendUint(b, uint64(member.Offset), 10)
			b = append(b, ',')
		}
	case PointerType:
		b = append(b, "ptr:"...)
		b = strconv.AppendUint(b, uint64(t.Base), 10)
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Space), 10)
	case AtomicType:
		b = append(b, "atomic:"...)
		b = strconv.AppendUint(b, uint64(t.Scalar.Kind), 10)
	case ImageType:
		b = append(b, "image:"...)
		b = strconv.AppendUint(b, uint64(t.Dim), 10)
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Class), 10)
		if t.Arrayed {
			b = append(b, ":arr"...)
		}
	case SamplerType:
		b = append(b, "sampler"...)
		if t.Comparison {
			b = append(b, ":cmp"...)
		}
	case BindingArrayType:
		b = append(b, "bindarray:"...)
		b = strconv.AppendUint(b, uint64(t.Base), 10)
	case AccelerationStructureType:
		b = append(b, "accel"...)
	}

	r.keyBuf = b
	return string(b)
}
