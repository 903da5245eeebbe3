package ir

// Module is a shader module in IR form. It is immutable once handed to a
// backend; one compile call reads a consistent snapshot.
type Module struct {
	// Types holds the type arena. TypeHandle values index into it.
	Types []Type

	// GlobalVariables holds module-scope variables.
	GlobalVariables []GlobalVariable

	// Functions holds all function definitions, entry points included.
	Functions []Function

	// EntryPoints holds the functions reachable from outside the module.
	EntryPoints []EntryPoint
}

// Handle types referencing IR arenas.
type (
	TypeHandle           uint32
	FunctionHandle       uint32
	GlobalVariableHandle uint32
	ExpressionHandle     uint32
)

// ShaderStage identifies the pipeline stage an entry point is bound to.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
	StageCompute
)

// String returns the stage name as used in diagnostics.
func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// EntryPoint binds a function to a shader stage under an externally visible
// name. Entry point names must be unique within a module.
type EntryPoint struct {
	Name     string
	Stage    ShaderStage
	Function FunctionHandle
}

// AddressSpace is the logical resource category of a global.
type AddressSpace uint8

const (
	SpaceFunction AddressSpace = iota
	SpacePrivate
	SpaceUniform
	SpaceStorage
	SpacePushConstant
	SpaceHandle
)

// String returns the address space name as used in diagnostics.
func (s AddressSpace) String() string {
	switch s {
	case SpaceFunction:
		return "function"
	case SpacePrivate:
		return "private"
	case SpaceUniform:
		return "uniform"
	case SpaceStorage:
		return "storage"
	case SpacePushConstant:
		return "push_constant"
	case SpaceHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// GlobalVariable is a module-scope variable bound to an address space.
type GlobalVariable struct {
	Name    string
	Space   AddressSpace
	Binding *ResourceBinding
	Type    TypeHandle
}

// ResourceBinding is an explicit (group, binding) pair for a resource.
type ResourceBinding struct {
	Group   uint32
	Binding uint32
}

// Function is a function definition: ordered arguments, local variables, an
// optional result, an expression arena, and a structured statement body.
type Function struct {
	Name        string
	Arguments   []FunctionArgument
	Result      *FunctionResult
	LocalVars   []LocalVariable
	Expressions []Expression
	Body        Block
}

// FunctionArgument is a single function parameter.
type FunctionArgument struct {
	Name    string
	Type    TypeHandle
	Binding *Binding
}

// FunctionResult is the function return type and its stage binding, if any.
type FunctionResult struct {
	Type    TypeHandle
	Binding *Binding
}

// LocalVariable is a function-local variable. Locals are the only
// addressable temporaries in a function.
type LocalVariable struct {
	Name string
	Type TypeHandle
	Init *ExpressionHandle
}

// Binding describes how a value crosses the shader stage boundary.
type Binding interface {
	binding()
}

// BuiltinBinding binds to a pipeline built-in value.
type BuiltinBinding struct {
	Builtin BuiltinValue
}

func (BuiltinBinding) binding() {}

// BuiltinValue enumerates pipeline built-ins.
type BuiltinValue uint8

const (
	BuiltinPosition BuiltinValue = iota
	BuiltinPointSize
	BuiltinFragDepth
	BuiltinVertexIndex
	BuiltinInstanceIndex
	BuiltinFrontFacing
	BuiltinSampleIndex
)

// LocationBinding binds to a numbered attribute/varying/output location.
type LocationBinding struct {
	Location uint32
}

func (LocationBinding) binding() {}
