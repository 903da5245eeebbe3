// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"github.com/gogpu/shadevm/ir"
)

func (fc *funcCompiler) lowerBlock(block ir.Block) error {
	for i := range block {
		if err := fc.lowerStatement(&block[i]); err != nil {
			return err
		}
	}
	return nil
}

func (fc *funcCompiler) lowerStatement(stmt *ir.Statement) error {
	fc.debugStep()

	switch s := stmt.Kind.(type) {
	case ir.StmtEmit:
		// Expressions are lowered on demand at their use sites.
		return nil
	case ir.StmtBlock:
		return fc.lowerBlock(s.Block)
	case ir.StmtIf:
		return fc.lowerIf(s)
	case ir.StmtSwitch:
		return fc.lowerSwitch(s)
	case ir.StmtLoop:
		return fc.lowerLoop(s)
	case ir.StmtBreak:
		return fc.lowerBranch(func(f controlFrame) bool { return f.breakTarget }, "break")
	case ir.StmtContinue:
		return fc.lowerBranch(func(f controlFrame) bool { return f.continueTarget }, "continue")
	case ir.StmtReturn:
		return fc.lowerReturn(s)
	case ir.StmtKill:
		// Discard ends the invocation; the host resolves coverage from the
		// outputs never having been written.
		fc.op(opReturn)
		return nil
	case ir.StmtStore:
		return fc.lowerStore(s)
	case ir.StmtImageStore:
		return fc.lowerImageStore(s)
	case ir.StmtCall:
		return fc.lowerCall(s)
	default:
		return Errorf(ErrUnsupportedFeature, "statement %T cannot be lowered", s).InFunction(fc.fn.Name)
	}
}

func (fc *funcCompiler) lowerIf(s ir.StmtIf) error {
	if err := fc.lowerComponent(s.Condition, 0); err != nil {
		return err
	}
	fc.op(opIf)
	fc.op(blockVoid)
	fc.pushCtrl(controlFrame{kind: ctrlIf})
	if err := fc.lowerBlock(s.Accept); err != nil {
		return err
	}
	if len(s.Reject) > 0 {
		fc.op(opElse)
		if err := fc.lowerBlock(s.Reject); err != nil {
			return err
		}
	}
	fc.op(opEnd)
	fc.popCtrl()
	return nil
}

// lowerSwitch evaluates the selector once into a scratch local, then walks
// the cases as a nested if/else chain inside one breakable block.
func (fc *funcCompiler) lowerSwitch(s ir.StmtSwitch) error {
	var valueCases []ir.SwitchCase
	var defaultCase *ir.SwitchCase
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.FallThrough {
			return NewError(ErrUnsupportedFeature, "switch fall-through").InFunction(fc.fn.Name)
		}
		if _, ok := c.Value.(ir.SwitchValueDefault); ok {
			if defaultCase != nil {
				return NewError(ErrInvalidModule, "switch has two default cases").InFunction(fc.fn.Name)
			}
			defaultCase = c
			continue
		}
		valueCases = append(valueCases, *c)
	}
	if defaultCase == nil {
		return NewError(ErrInvalidModule, "switch has no default case").InFunction(fc.fn.Name)
	}

	sel := fc.allocScratch(ValI32)
	if err := fc.lowerComponent(s.Selector, 0); err != nil {
		return err
	}
	fc.localSet(sel)

	fc.op(opBlock)
	fc.op(blockVoid)
	fc.pushCtrl(controlFrame{kind: ctrlSwitch, breakTarget: true})

	var emit func(cases []ir.SwitchCase) error
	emit = func(cases []ir.SwitchCase) error {
		if len(cases) == 0 {
			return fc.lowerBlock(defaultCase.Body)
		}
		c := cases[0]
		fc.localGet(sel)
		switch v := c.Value.(type) {
		case ir.SwitchValueI32:
			fc.i32Const(int32(v))
		case ir.SwitchValueU32:
			fc.i32Const(int32(v))
		default:
			return Errorf(ErrInternalError, "switch value %T", v).InFunction(fc.fn.Name)
		}
		fc.op(opI32Eq)
		fc.op(opIf)
		fc.op(blockVoid)
		fc.pushCtrl(controlFrame{kind: ctrlIf})
		if err := fc.lowerBlock(c.Body); err != nil {
			return err
		}
		fc.op(opElse)
		if err := emit(cases[1:]); err != nil {
			return err
		}
		fc.op(opEnd)
		fc.popCtrl()
		return nil
	}
	if err := emit(valueCases); err != nil {
		return err
	}

	fc.op(opEnd)
	fc.popCtrl()
	return nil
}

// lowerLoop encodes the loop as three nested frames: an outer breakable
// block, the backedge loop, and an inner block whose end is the continue
// target, placed just before the continuing statements.
func (fc *funcCompiler) lowerLoop(s ir.StmtLoop) error {
	fc.op(opBlock)
	fc.op(blockVoid)
	fc.pushCtrl(controlFrame{kind: ctrlBlock, breakTarget: true})

	fc.op(opLoop)
	fc.op(blockVoid)
	fc.pushCtrl(controlFrame{kind: ctrlLoop})

	fc.op(opBlock)
	fc.op(blockVoid)
	fc.pushCtrl(controlFrame{kind: ctrlBlock, continueTarget: true})
	if err := fc.lowerBlock(s.Body); err != nil {
		return err
	}
	fc.op(opEnd)
	fc.popCtrl()

	if err := fc.lowerBlock(s.Continuing); err != nil {
		return err
	}
	if s.BreakIf != nil {
		if err := fc.lowerComponent(*s.BreakIf, 0); err != nil {
			return err
		}
		depth, ok := fc.branchDepth(func(f controlFrame) bool { return f.breakTarget })
		if !ok {
			return NewError(ErrInternalError, "loop has no break target").InFunction(fc.fn.Name)
		}
		fc.op(opBrIf)
		fc.uleb(uint64(depth))
	}

	// Backedge.
	fc.op(opBr)
	fc.uleb(0)

	fc.op(opEnd)
	fc.popCtrl()
	fc.op(opEnd)
	fc.popCtrl()
	return nil
}

// lowerBranch resolves break and continue by walking the control-frame
// stack for the nearest frame of the wanted role.
func (fc *funcCompiler) lowerBranch(want func(controlFrame) bool, name string) error {
	depth, ok := fc.branchDepth(want)
	if !ok {
		return Errorf(ErrInvalidModule, "%s outside any matching construct", name).InFunction(fc.fn.Name)
	}
	fc.op(opBr)
	fc.uleb(uint64(depth))
	return nil
}

func (fc *funcCompiler) lowerReturn(s ir.StmtReturn) error {
	if fc.entry != nil {
		if s.Value != nil {
			outputs := fc.c.plan.entryOutputs[fc.handle]
			for ci, rc := range outputs {
				fc.globalGet(rc.region.globalIndex())
				if err := fc.lowerComponent(*s.Value, ci); err != nil {
					return err
				}
				if err := fc.emitStore(rc.kind, rc.width, rc.offset); err != nil {
					return err
				}
			}
		}
		fc.op(opReturn)
		return nil
	}

	if s.Value == nil {
		fc.op(opReturn)
		return nil
	}

	result := fc.abi.Result
	if result == nil {
		return NewError(ErrInvalidModule, "return with a value from a void function").InFunction(fc.fn.Name)
	}
	if result.Flattened {
		n := len(result.ValTypes)
		for ci := 0; ci < n; ci++ {
			if err := fc.lowerComponent(*s.Value, ci); err != nil {
				return err
			}
		}
		fc.op(opReturn)
		return nil
	}

	// Frame result: write through the implicit trailing pointer.
	comps, cerr := componentsOf(fc.m, fc.m.Types[fc.fn.Result.Type].Inner)
	if cerr != nil {
		return cerr.InFunction(fc.fn.Name)
	}
	for ci, comp := range comps {
		fc.localGet(uint32(fc.resultPtr))
		if err := fc.lowerComponent(*s.Value, ci); err != nil {
			return err
		}
		if err := fc.emitStore(comp.kind, comp.width, comp.offset); err != nil {
			return err
		}
	}
	fc.op(opReturn)
	return nil
}

func (fc *funcCompiler) lowerStore(s ir.StmtStore) error {
	pointee, err := fc.pointeeInner(s.Pointer)
	if err != nil {
		return err
	}
	comps, cerr := componentsOf(fc.m, pointee)
	if cerr != nil {
		return cerr.InFunction(fc.fn.Name)
	}
	for ci, comp := range comps {
		if err := fc.lowerPointer(s.Pointer); err != nil {
			return err
		}
		if err := fc.lowerComponent(s.Value, ci); err != nil {
			return err
		}
		if err := fc.emitStore(comp.kind, comp.width, comp.offset); err != nil {
			return err
		}
	}
	return nil
}

func (fc *funcCompiler) lowerImageStore(s ir.StmtImageStore) error {
	idx, err := fc.c.requireTexHelper(texHelperStore)
	if err != nil {
		return err
	}
	n, err := fc.compCountOf(s.Value)
	if err != nil {
		return err
	}
	for ci := 0; ci < n; ci++ {
		if err := fc.lowerComponent(s.Image, 0); err != nil {
			return err
		}
		if err := fc.lowerComponent(s.Coordinate, 0); err != nil {
			return err
		}
		if err := fc.lowerComponent(s.Coordinate, 1); err != nil {
			return err
		}
		fc.i32Const(int32(ci))
		if err := fc.lowerComponent(s.Value, ci); err != nil {
			return err
		}
		fc.call(idx)
	}
	return nil
}

// lowerCall dispatches a call through the callee's ABI: flattened
// arguments push directly, frame arguments are copied into a fresh frame
// allocation passed by pointer, and results land in scratch locals when
// the caller names them.
func (fc *funcCompiler) lowerCall(s ir.StmtCall) error {
	if int(s.Function) >= len(fc.m.Functions) {
		return Errorf(ErrInvalidModule, "call references function %d of %d",
			s.Function, len(fc.m.Functions)).InFunction(fc.fn.Name)
	}
	abi := fc.c.abis[s.Function]
	callee := &fc.m.Functions[s.Function]
	if abi == nil {
		// Entry-point functions use the pointer-sextet signature and have
		// no classified ABI to call through.
		return Errorf(ErrInvalidModule, "call to %q, which serves an entry point", callee.Name).InFunction(fc.fn.Name)
	}
	if len(s.Arguments) != len(abi.Params) {
		return Errorf(ErrInvalidModule, "call to %q passes %d arguments, want %d",
			callee.Name, len(s.Arguments), len(abi.Params)).InFunction(fc.fn.Name)
	}

	var oldSP, base uint32
	if abi.UsesFrame {
		oldSP, base = fc.emitFrameAlloc(abi.FrameSize, abi.FrameAlignment)
		fc.frameModel.Alloc(abi.FrameSize, abi.FrameAlignment)
	}

	// Copy-in pass for frame parameters.
	for i := range abi.Params {
		p := &abi.Params[i]
		if p.Flattened || !p.CopyIn {
			continue
		}
		if err := fc.copyInFrameArg(callee, p, s.Arguments[i], base); err != nil {
			return err
		}
	}

	// Push the native arguments.
	for i := range abi.Params {
		p := &abi.Params[i]
		if !p.Flattened {
			fc.localGet(base)
			if p.Offset != 0 {
				fc.i32Const(int32(p.Offset))
				fc.op(opI32Add)
			}
			continue
		}
		if err := fc.pushFlattenedArg(callee, i, s.Arguments[i], len(p.ValTypes)); err != nil {
			return err
		}
	}
	if abi.Result != nil && !abi.Result.Flattened {
		fc.localGet(base)
		if abi.Result.Offset != 0 {
			fc.i32Const(int32(abi.Result.Offset))
			fc.op(opI32Add)
		}
	}

	fc.call(fc.c.funcIndex[s.Function])

	if err := fc.captureCallResult(callee, abi, s.Result, base); err != nil {
		return err
	}

	// TODO: copy modified frame contents back out for writable pointer
	// parameters before the frame is freed.
	if abi.UsesFrame {
		fc.emitFrameFree(oldSP)
		fc.frameModel.Free(oldSP)
	}
	return nil
}

// copyInFrameArg copies one frame-passed argument into the allocated
// frame. Writable-pointer arguments copy their pointee.
func (fc *funcCompiler) copyInFrameArg(callee *ir.Function, p *ParamABI, arg ir.ExpressionHandle, base uint32) error {
	argInner, err := fc.resolveInner(arg)
	if err != nil {
		return err
	}
	if _, ok := argInner.(ir.PointerType); ok {
		pointee, perr := fc.pointeeInner(arg)
		if perr != nil {
			return perr
		}
		comps, cerr := componentsOf(fc.m, pointee)
		if cerr != nil {
			return cerr.InFunction(fc.fn.Name)
		}
		for _, comp := range comps {
			fc.localGet(base)
			if err := fc.lowerPointer(arg); err != nil {
				return err
			}
			if err := fc.emitLoad(comp.kind, comp.width, comp.offset); err != nil {
				return err
			}
			if err := fc.emitStore(comp.kind, comp.width, p.Offset+comp.offset); err != nil {
				return err
			}
		}
		return nil
	}

	comps, cerr := componentsOf(fc.m, argInner)
	if cerr != nil {
		return cerr.InFunction(fc.fn.Name)
	}
	for ci, comp := range comps {
		fc.localGet(base)
		if err := fc.lowerComponent(arg, ci); err != nil {
			return err
		}
		if err := fc.emitStore(comp.kind, comp.width, p.Offset+comp.offset); err != nil {
			return err
		}
	}
	return nil
}

// pushFlattenedArg pushes the native slots of one flattened argument.
// Resource handles and read-only pointers pass their single address slot.
func (fc *funcCompiler) pushFlattenedArg(callee *ir.Function, index int, arg ir.ExpressionHandle, slots int) error {
	paramInner := fc.m.Types[callee.Arguments[index].Type].Inner
	switch paramInner.(type) {
	case ir.PointerType, ir.AtomicType:
		return fc.lowerPointer(arg)
	case ir.ImageType, ir.SamplerType:
		return fc.lowerComponent(arg, 0)
	}
	for ci := 0; ci < slots; ci++ {
		if err := fc.lowerComponent(arg, ci); err != nil {
			return err
		}
	}
	return nil
}

// captureCallResult moves the call's results into scratch locals keyed by
// the naming ExprCallResult, or drops them when unused.
func (fc *funcCompiler) captureCallResult(callee *ir.Function, abi *FunctionABI, result *ir.ExpressionHandle, base uint32) error {
	if abi.Result == nil {
		return nil
	}

	if result == nil {
		if abi.Result.Flattened {
			for range abi.Result.ValTypes {
				fc.op(opDrop)
			}
		}
		return nil
	}

	if abi.Result.Flattened {
		n := len(abi.Result.ValTypes)
		locals := make([]uint32, n)
		for i := 0; i < n; i++ {
			locals[i] = fc.allocScratch(abi.Result.ValTypes[i])
		}
		for i := n - 1; i >= 0; i-- {
			fc.localSet(locals[i])
		}
		fc.callResults[*result] = locals
		return nil
	}

	comps, cerr := componentsOf(fc.m, fc.m.Types[callee.Result.Type].Inner)
	if cerr != nil {
		return cerr.InFunction(fc.fn.Name)
	}
	locals := make([]uint32, len(comps))
	for ci, comp := range comps {
		vt, verr := comp.valType()
		if verr != nil {
			return verr.InFunction(fc.fn.Name)
		}
		locals[ci] = fc.allocScratch(vt)
		fc.localGet(base)
		if err := fc.emitLoad(comp.kind, comp.width, abi.Result.Offset+comp.offset); err != nil {
			return err
		}
		fc.localSet(locals[ci])
	}
	fc.callResults[*result] = locals
	return nil
}
