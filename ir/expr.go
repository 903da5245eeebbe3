package ir

// Expression is one entry in a function's expression arena.
type Expression struct {
	Kind ExpressionKind
}

// ExpressionKind is the closed set of expression shapes.
type ExpressionKind interface {
	expressionKind()
}

// Literal is a constant scalar value.
type Literal struct {
	Value LiteralValue
}

func (Literal) expressionKind() {}

// LiteralValue is the typed payload of a Literal.
type LiteralValue interface {
	literalValue()
}

// LiteralF32 is a 32-bit float literal.
type LiteralF32 float32

func (LiteralF32) literalValue() {}

// LiteralI32 is a 32-bit signed integer literal.
type LiteralI32 int32

func (LiteralI32) literalValue() {}

// LiteralU32 is a 32-bit unsigned integer literal.
type LiteralU32 uint32

func (LiteralU32) literalValue() {}

// LiteralBool is a boolean literal.
type LiteralBool bool

func (LiteralBool) literalValue() {}

// LiteralAbstractInt is an unconcretized integer literal. Backends reject it.
type LiteralAbstractInt int64

func (LiteralAbstractInt) literalValue() {}

// LiteralAbstractFloat is an unconcretized float literal. Backends reject it.
type LiteralAbstractFloat float64

func (LiteralAbstractFloat) literalValue() {}

// ExprZeroValue is the zero value of a type.
type ExprZeroValue struct {
	Type TypeHandle
}

func (ExprZeroValue) expressionKind() {}

// ExprCompose constructs a composite (vector, matrix, array, struct) from
// component expressions.
type ExprCompose struct {
	Type       TypeHandle
	Components []ExpressionHandle
}

func (ExprCompose) expressionKind() {}

// ExprAccess indexes an array, vector, or matrix with a computed index.
type ExprAccess struct {
	Base  ExpressionHandle
	Index ExpressionHandle
}

func (ExprAccess) expressionKind() {}

// ExprAccessIndex indexes with a compile-time constant. Also the only way to
// select a struct member.
type ExprAccessIndex struct {
	Base  ExpressionHandle
	Index uint32
}

func (ExprAccessIndex) expressionKind() {}

// ExprSplat broadcasts a scalar to all components of a vector.
type ExprSplat struct {
	Size  VectorSize
	Value ExpressionHandle
}

func (ExprSplat) expressionKind() {}

// SwizzleComponent selects one source component in a swizzle pattern.
type SwizzleComponent uint8

const (
	SwizzleX SwizzleComponent = 0
	SwizzleY SwizzleComponent = 1
	SwizzleZ SwizzleComponent = 2
	SwizzleW SwizzleComponent = 3
)

// ExprSwizzle reorders or duplicates vector components.
type ExprSwizzle struct {
	Size    VectorSize
	Vector  ExpressionHandle
	Pattern [4]SwizzleComponent
}

func (ExprSwizzle) expressionKind() {}

// ExprFunctionArgument references a function parameter by index.
type ExprFunctionArgument struct {
	Index uint32
}

func (ExprFunctionArgument) expressionKind() {}

// ExprGlobalVariable references a global variable. For the handle address
// space it produces the resource handle directly; otherwise a pointer.
type ExprGlobalVariable struct {
	Variable GlobalVariableHandle
}

func (ExprGlobalVariable) expressionKind() {}

// ExprLocalVariable references a local variable; produces a pointer.
type ExprLocalVariable struct {
	Variable uint32 // index into Function.LocalVars
}

func (ExprLocalVariable) expressionKind() {}

// ExprLoad reads a value through a pointer.
type ExprLoad struct {
	Pointer ExpressionHandle
}

func (ExprLoad) expressionKind() {}

// UnaryOperator enumerates unary operations.
type UnaryOperator uint8

const (
	UnaryNegate UnaryOperator = iota
	UnaryLogicalNot
	UnaryBitwiseNot
)

// ExprUnary applies a unary operator.
type ExprUnary struct {
	Op   UnaryOperator
	Expr ExpressionHandle
}

func (ExprUnary) expressionKind() {}

// BinaryOperator enumerates binary operations.
type BinaryOperator uint8

const (
	BinaryAdd BinaryOperator = iota
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryModulo

	BinaryEqual
	BinaryNotEqual
	BinaryLess
	BinaryLessEqual
	BinaryGreater
	BinaryGreaterEqual

	BinaryAnd
	BinaryExclusiveOr
	BinaryInclusiveOr

	BinaryLogicalAnd
	BinaryLogicalOr

	BinaryShiftLeft
	BinaryShiftRight
)

// ExprBinary applies a binary operator to two expressions.
type ExprBinary struct {
	Op    BinaryOperator
	Left  ExpressionHandle
	Right ExpressionHandle
}

func (ExprBinary) expressionKind() {}

// ExprSelect picks between two values on a boolean condition.
type ExprSelect struct {
	Condition ExpressionHandle
	Accept    ExpressionHandle
	Reject    ExpressionHandle
}

func (ExprSelect) expressionKind() {}

// MathFunction enumerates built-in math functions.
type MathFunction uint8

const (
	MathAbs MathFunction = iota
	MathMin
	MathMax
	MathClamp
	MathSaturate

	MathCos
	MathSin
	MathTan
	MathAcos
	MathAsin
	MathAtan
	MathAtan2

	MathCeil
	MathFloor
	MathRound
	MathFract
	MathTrunc

	MathExp
	MathExp2
	MathLog
	MathLog2
	MathPow

	MathDot
	MathCross
	MathDistance
	MathLength
	MathNormalize
	MathOuter
	MathTranspose

	MathSign
	MathFma
	MathMix
	MathStep
	MathSmoothStep
	MathSqrt
	MathInverseSqrt
)

// ExprMath applies a math function. Arg is always present; Arg1..Arg3 are
// used by functions of higher arity.
type ExprMath struct {
	Fun  MathFunction
	Arg  ExpressionHandle
	Arg1 *ExpressionHandle
	Arg2 *ExpressionHandle
	Arg3 *ExpressionHandle
}

func (ExprMath) expressionKind() {}

// ExprAs converts or bitcasts to another scalar kind. When Convert is set the
// value is numerically converted to the given byte width; otherwise the bits
// are reinterpreted.
type ExprAs struct {
	Expr    ExpressionHandle
	Kind    ScalarKind
	Convert *uint8
}

func (ExprAs) expressionKind() {}

// ExprCallResult is the value produced by a StmtCall naming it as Result.
type ExprCallResult struct {
	Function FunctionHandle
}

func (ExprCallResult) expressionKind() {}

// ExprImageSample samples a sampled or depth image at a coordinate.
type ExprImageSample struct {
	Image      ExpressionHandle
	Sampler    ExpressionHandle
	Coordinate ExpressionHandle
}

func (ExprImageSample) expressionKind() {}

// ExprImageLoad reads a texel at an integer coordinate without sampling.
type ExprImageLoad struct {
	Image      ExpressionHandle
	Coordinate ExpressionHandle
}

func (ExprImageLoad) expressionKind() {}

// ImageQuery is the kind of an image query.
type ImageQuery interface {
	imageQuery()
}

// ImageQuerySize asks for the image dimensions.
type ImageQuerySize struct{}

func (ImageQuerySize) imageQuery() {}

// ExprImageQuery queries image metadata.
type ExprImageQuery struct {
	Image ExpressionHandle
	Query ImageQuery
}

func (ExprImageQuery) expressionKind() {}
