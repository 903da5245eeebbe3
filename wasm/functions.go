// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"math"

	"github.com/gogpu/shadevm/ir"
)

// funcState tracks the phases one function moves through. Any error aborts
// at the current state and fails the whole compile call.
type funcState uint8

const (
	stateNotStarted funcState = iota
	stateParamsClassified
	stateLocalsLaidOut
	stateBodyLowered
	stateFinalized
)

// controlKind is the shape of one entry of the control-frame stack.
type controlKind uint8

const (
	ctrlBlock controlKind = iota
	ctrlLoop
	ctrlIf
	ctrlSwitch
)

// controlFrame records one enclosing structured construct. Break and
// continue are lowered by walking the stack innermost-first for the
// nearest frame marked as the matching target.
type controlFrame struct {
	kind           controlKind
	breakTarget    bool
	continueTarget bool
}

// funcCompiler lowers one IR function into an encoded body. Internal
// functions follow their classified ABI; entry points use the fixed
// six-pointer native signature and move their IR inputs and outputs
// through the memory regions instead.
type funcCompiler struct {
	c      *compiler
	m      *ir.Module
	fn     *ir.Function
	handle ir.FunctionHandle
	abi    *FunctionABI   // nil in entry mode
	entry  *ir.EntryPoint // nil for internal functions
	state  funcState

	code        []byte
	params      []ValType
	extraLocals []ValType

	// argSlots maps each IR argument to its first native parameter slot.
	argSlots  []uint32
	resultPtr int // native slot of the implicit result pointer, -1 if none

	ctrl        []controlFrame
	callResults map[ir.ExpressionHandle][]uint32
	frameModel  frameStack
}

func newFuncCompiler(c *compiler, handle ir.FunctionHandle, entry *ir.EntryPoint) *funcCompiler {
	return &funcCompiler{
		c:           c,
		m:           c.m,
		fn:          &c.m.Functions[handle],
		handle:      handle,
		entry:       entry,
		resultPtr:   -1,
		callResults: make(map[ir.ExpressionHandle][]uint32),
	}
}

// compile drives the function through its phases and hands the finished
// body to the module builder.
func (fc *funcCompiler) compile() error {
	if err := fc.classifyParams(); err != nil {
		return err
	}
	if err := fc.layOutLocals(); err != nil {
		return err
	}
	if err := fc.lowerBody(); err != nil {
		return err
	}
	return fc.finalize()
}

// classifyParams fixes the native signature: the entry-point pointer
// sextet, or the slots derived from the classified ABI.
func (fc *funcCompiler) classifyParams() error {
	if fc.state != stateNotStarted {
		return NewError(ErrInternalError, "parameter classification out of order")
	}
	if fc.entry != nil {
		fc.params = []ValType{ValI32, ValI32, ValI32, ValI32, ValI32, ValI32}
		fc.state = stateParamsClassified
		return nil
	}

	fc.abi = fc.c.abis[fc.handle]
	fc.params = fc.abi.ParamValTypes()
	slot := uint32(0)
	for i := range fc.abi.Params {
		fc.argSlots = append(fc.argSlots, slot)
		if p := &fc.abi.Params[i]; p.Flattened {
			slot += uint32(len(p.ValTypes))
		} else {
			slot++
		}
	}
	if fc.abi.Result != nil && !fc.abi.Result.Flattened {
		fc.resultPtr = int(slot)
	}
	fc.state = stateParamsClassified
	return nil
}

// layOutLocals emits the prologue: the entry point installs the six base
// pointers into the persistent globals, and every function stores its
// local-variable initializers into the private region.
func (fc *funcCompiler) layOutLocals() error {
	if fc.state != stateParamsClassified {
		return NewError(ErrInternalError, "local layout out of order")
	}

	if fc.entry != nil {
		for g := uint32(0); g < numBaseGlobals; g++ {
			fc.localGet(g)
			fc.globalSet(g)
		}
	}

	for li := range fc.fn.LocalVars {
		local := &fc.fn.LocalVars[li]
		if local.Init == nil {
			continue
		}
		base := fc.c.plan.localOffset(fc.handle, uint32(li))
		comps, err := componentsOf(fc.m, fc.m.Types[local.Type].Inner)
		if err != nil {
			return err.InFunction(fc.fn.Name)
		}
		for ci, comp := range comps {
			fc.globalGet(globalPrivateBase)
			if err := fc.lowerComponent(*local.Init, ci); err != nil {
				return err
			}
			if err := fc.emitStore(comp.kind, comp.width, base+comp.offset); err != nil {
				return err
			}
		}
	}

	fc.state = stateLocalsLaidOut
	return nil
}

// lowerBody lowers the statement tree in order.
func (fc *funcCompiler) lowerBody() error {
	if fc.state != stateLocalsLaidOut {
		return NewError(ErrInternalError, "body lowering out of order")
	}
	if err := fc.lowerBlock(fc.fn.Body); err != nil {
		return err
	}
	fc.state = stateBodyLowered
	return nil
}

// finalize closes the body and registers it with the module builder. A
// function with flattened results must return explicitly on every path, so
// falling off the end is unreachable.
func (fc *funcCompiler) finalize() error {
	if fc.state != stateBodyLowered {
		return NewError(ErrInternalError, "finalize out of order")
	}
	if fc.abi != nil && fc.abi.Result != nil && fc.abi.Result.Flattened {
		fc.op(opUnreachable)
	}
	idx := fc.c.funcIndex[fc.handle]
	if err := fc.c.builder.setBody(idx, fc.extraLocals, fc.code); err != nil {
		return err
	}
	fc.state = stateFinalized
	return nil
}

// Emission primitives.

func (fc *funcCompiler) op(b byte) {
	fc.code = append(fc.code, b)
}

func (fc *funcCompiler) uleb(v uint64) {
	fc.code = appendUleb(fc.code, v)
}

func (fc *funcCompiler) sleb(v int64) {
	fc.code = appendSleb(fc.code, v)
}

func (fc *funcCompiler) i32Const(v int32) {
	fc.op(opI32Const)
	fc.sleb(int64(v))
}

func (fc *funcCompiler) f32Const(v float32) {
	fc.op(opF32Const)
	fc.code = appendF32(fc.code, v)
}

func (fc *funcCompiler) localGet(idx uint32) {
	fc.op(opLocalGet)
	fc.uleb(uint64(idx))
}

func (fc *funcCompiler) localSet(idx uint32) {
	fc.op(opLocalSet)
	fc.uleb(uint64(idx))
}

func (fc *funcCompiler) localTee(idx uint32) {
	fc.op(opLocalTee)
	fc.uleb(uint64(idx))
}

func (fc *funcCompiler) globalGet(idx uint32) {
	fc.op(opGlobalGet)
	fc.uleb(uint64(idx))
}

func (fc *funcCompiler) globalSet(idx uint32) {
	fc.op(opGlobalSet)
	fc.uleb(uint64(idx))
}

func (fc *funcCompiler) call(funcIdx uint32) {
	fc.op(opCall)
	fc.uleb(uint64(funcIdx))
}

// allocScratch appends a scratch local of the given type and returns its
// index in the local index space.
func (fc *funcCompiler) allocScratch(vt ValType) uint32 {
	idx := uint32(len(fc.params) + len(fc.extraLocals))
	fc.extraLocals = append(fc.extraLocals, vt)
	return idx
}

// emitLoad emits the load for one scalar component: the address operand is
// on the stack and offset is folded into the instruction immediate.
// Booleans load as a single byte.
func (fc *funcCompiler) emitLoad(kind ir.ScalarKind, width uint8, offset uint32) error {
	switch {
	case kind == ir.ScalarBool || width == 1:
		fc.op(opI32Load8U)
		fc.uleb(0)
	case kind == ir.ScalarFloat && width == 4:
		fc.op(opF32Load)
		fc.uleb(2)
	case width == 4:
		fc.op(opI32Load)
		fc.uleb(2)
	default:
		return Errorf(ErrUnsupportedType, "no load for %s of width %d", kind, width).InFunction(fc.fn.Name)
	}
	fc.uleb(uint64(offset))
	return nil
}

// emitStore is the store counterpart of emitLoad.
func (fc *funcCompiler) emitStore(kind ir.ScalarKind, width uint8, offset uint32) error {
	switch {
	case kind == ir.ScalarBool || width == 1:
		fc.op(opI32Store8)
		fc.uleb(0)
	case kind == ir.ScalarFloat && width == 4:
		fc.op(opF32Store)
		fc.uleb(2)
	case width == 4:
		fc.op(opI32Store)
		fc.uleb(2)
	default:
		return Errorf(ErrUnsupportedType, "no store for %s of width %d", kind, width).InFunction(fc.fn.Name)
	}
	fc.uleb(uint64(offset))
	return nil
}

// Control-frame stack.

func (fc *funcCompiler) pushCtrl(f controlFrame) {
	fc.ctrl = append(fc.ctrl, f)
}

func (fc *funcCompiler) popCtrl() {
	fc.ctrl = fc.ctrl[:len(fc.ctrl)-1]
}

// branchDepth walks the control-frame stack innermost-first and returns
// the relative depth of the first frame the predicate accepts.
func (fc *funcCompiler) branchDepth(want func(controlFrame) bool) (uint32, bool) {
	for i := len(fc.ctrl) - 1; i >= 0; i-- {
		if want(fc.ctrl[i]) {
			return uint32(len(fc.ctrl) - 1 - i), true
		}
	}
	return 0, false
}

// zeroConst pushes the typed zero for a scalar kind.
func (fc *funcCompiler) zeroConst(kind ir.ScalarKind) {
	if kind == ir.ScalarFloat {
		fc.f32Const(0)
	} else {
		fc.i32Const(0)
	}
}

// debugStep emits a host callback carrying a fresh sequence number when
// debug stepping is enabled.
func (fc *funcCompiler) debugStep() {
	if !fc.c.hasDebugStep {
		return
	}
	seq := fc.c.stepCounter
	fc.c.stepCounter++
	if seq > math.MaxInt32 {
		seq = math.MaxInt32
	}
	fc.i32Const(int32(seq))
	fc.call(fc.c.debugStepIdx)
}
