package ir

// Statement is one node of a function's structured statement tree.
// Statements carry side effects and control flow; they produce no values.
type Statement struct {
	Kind StatementKind
}

// StatementKind is the closed set of statement shapes.
type StatementKind interface {
	statementKind()
}

// Block is an ordered statement sequence.
type Block []Statement

// Range marks a half-open range of expression handles.
type Range struct {
	Start ExpressionHandle
	End   ExpressionHandle // exclusive
}

// StmtEmit marks a range of expressions as evaluated at this point. The
// shadevm backend lowers expressions on demand, so Emit is a structural
// no-op there; it is kept so modules produced for eager backends remain
// valid input.
type StmtEmit struct {
	Range Range
}

func (StmtEmit) statementKind() {}

// StmtBlock executes a nested block in order.
type StmtBlock struct {
	Block Block
}

func (StmtBlock) statementKind() {}

// StmtIf executes one of two blocks on a boolean condition.
type StmtIf struct {
	Condition ExpressionHandle
	Accept    Block
	Reject    Block
}

func (StmtIf) statementKind() {}

// SwitchValue is the value triggering a switch case.
type SwitchValue interface {
	switchValue()
}

// SwitchValueI32 matches a signed selector value.
type SwitchValueI32 int32

func (SwitchValueI32) switchValue() {}

// SwitchValueU32 matches an unsigned selector value.
type SwitchValueU32 uint32

func (SwitchValueU32) switchValue() {}

// SwitchValueDefault matches every value not explicitly listed.
type SwitchValueDefault struct{}

func (SwitchValueDefault) switchValue() {}

// SwitchCase is one arm of a switch.
type SwitchCase struct {
	Value       SwitchValue
	Body        Block
	FallThrough bool
}

// StmtSwitch selects one of several blocks on an integer selector. Exactly
// one case must be Default.
type StmtSwitch struct {
	Selector ExpressionHandle
	Cases    []SwitchCase
}

func (StmtSwitch) statementKind() {}

// StmtLoop repeats Body then Continuing until a Break or Return exits.
// Continue inside Body jumps to Continuing. BreakIf, when set, is evaluated
// after Continuing and exits the loop when true.
type StmtLoop struct {
	Body       Block
	Continuing Block
	BreakIf    *ExpressionHandle
}

func (StmtLoop) statementKind() {}

// StmtBreak exits the innermost enclosing Loop or Switch.
type StmtBreak struct{}

func (StmtBreak) statementKind() {}

// StmtContinue jumps to the Continuing block of the innermost Loop.
type StmtContinue struct{}

func (StmtContinue) statementKind() {}

// StmtReturn returns from the function, possibly with a value.
type StmtReturn struct {
	Value *ExpressionHandle
}

func (StmtReturn) statementKind() {}

// StmtKill aborts the current fragment invocation (discard).
type StmtKill struct{}

func (StmtKill) statementKind() {}

// StmtStore writes a value through a pointer.
type StmtStore struct {
	Pointer ExpressionHandle
	Value   ExpressionHandle
}

func (StmtStore) statementKind() {}

// StmtImageStore writes a texel to a storage image.
type StmtImageStore struct {
	Image      ExpressionHandle
	Coordinate ExpressionHandle
	Value      ExpressionHandle
}

func (StmtImageStore) statementKind() {}

// StmtCall calls a function. When Result is set it must reference an
// ExprCallResult expression in the caller's arena.
type StmtCall struct {
	Function  FunctionHandle
	Arguments []ExpressionHandle
	Result    *ExpressionHandle
}

func (StmtCall) statementKind() {}
