package ir

// Type is a named entry in the module type arena.
type Type struct {
	Name  string
	Inner TypeInner
}

// TypeInner is the closed set of type shapes. Backends match exhaustively
// over it; adding a variant is a breaking change by design.
type TypeInner interface {
	typeInner()
}

// ScalarKind distinguishes the numeric interpretation of a scalar.
type ScalarKind uint8

const (
	ScalarSint ScalarKind = iota
	ScalarUint
	ScalarFloat
	ScalarBool

	// Abstract kinds exist only before a front end concretizes literals.
	// They never survive into a compilable module; backends reject them.
	ScalarAbstractInt
	ScalarAbstractFloat
)

// String returns the scalar kind name as used in diagnostics.
func (k ScalarKind) String() string {
	switch k {
	case ScalarSint:
		return "i32"
	case ScalarUint:
		return "u32"
	case ScalarFloat:
		return "f32"
	case ScalarBool:
		return "bool"
	case ScalarAbstractInt:
		return "abstract-int"
	case ScalarAbstractFloat:
		return "abstract-float"
	default:
		return "unknown"
	}
}

// ScalarType is a single numeric or boolean value.
type ScalarType struct {
	Kind  ScalarKind
	Width uint8 // in bytes
}

func (ScalarType) typeInner() {}

// VectorSize is the component count of a vector.
type VectorSize uint8

const (
	Vec2 VectorSize = 2
	Vec3 VectorSize = 3
	Vec4 VectorSize = 4
)

// VectorType is a fixed-size vector of scalars.
type VectorType struct {
	Size   VectorSize
	Scalar ScalarType
}

func (VectorType) typeInner() {}

// MatrixType is a column-major matrix: Columns column vectors of Rows
// components each.
type MatrixType struct {
	Columns VectorSize
	Rows    VectorSize
	Scalar  ScalarType
}

func (MatrixType) typeInner() {}

// ArraySize is a fixed element count, or dynamic when Constant is nil.
type ArraySize struct {
	Constant *uint32
}

// ArrayType is a homogeneous array with an explicit element stride.
type ArrayType struct {
	Base   TypeHandle
	Size   ArraySize
	Stride uint32
}

func (ArrayType) typeInner() {}

// StructMember is one field of a struct, at an explicit byte offset.
type StructMember struct {
	Name    string
	Type    TypeHandle
	Binding *Binding
	Offset  uint32
}

// StructType is an ordered list of members spanning Span bytes.
type StructType struct {
	Members []StructMember
	Span    uint32
}

func (StructType) typeInner() {}

// PointerType points at a value in a particular address space.
type PointerType struct {
	Base  TypeHandle
	Space AddressSpace
}

func (PointerType) typeInner() {}

// AtomicType wraps a scalar for atomic access. The backend passes atomics
// as plain handles; it never emits atomic operations itself.
type AtomicType struct {
	Scalar ScalarType
}

func (AtomicType) typeInner() {}

// ImageDimension is the dimensionality of an image.
type ImageDimension uint8

const (
	Dim1D ImageDimension = iota
	Dim2D
	Dim3D
	DimCube
)

// ImageClass classifies how an image is accessed.
type ImageClass uint8

const (
	ImageClassSampled ImageClass = iota
	ImageClassDepth
	ImageClassStorage
)

// ImageType is a texture resource handle type.
type ImageType struct {
	Dim     ImageDimension
	Arrayed bool
	Class   ImageClass
}

func (ImageType) typeInner() {}

// SamplerType is a sampler resource handle type.
type SamplerType struct {
	Comparison bool
}

func (SamplerType) typeInner() {}

// BindingArrayType is an array of resource bindings. Not supported by the
// shadevm backend; it exists so the rejection is typed rather than a front
// end convention.
type BindingArrayType struct {
	Base TypeHandle
	Size ArraySize
}

func (BindingArrayType) typeInner() {}

// AccelerationStructureType is a ray-tracing acceleration structure handle.
// Not supported by the shadevm backend.
type AccelerationStructureType struct{}

func (AccelerationStructureType) typeInner() {}

// TypeResolution is the resolved type of an expression: either a handle into
// the module type arena or an inline computed type.
type TypeResolution struct {
	Handle *TypeHandle
	Value  TypeInner
}

// ResolutionOf wraps a type handle in a TypeResolution.
func ResolutionOf(h TypeHandle) TypeResolution {
	return TypeResolution{Handle: &h}
}

// Inner returns the underlying TypeInner, following the handle if set.
func (r TypeResolution) Inner(m *Module) TypeInner {
	if r.Handle != nil {
		return m.Types[*r.Handle].Inner
	}
	return r.Value
}
