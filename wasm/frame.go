// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

// frameStack models the LIFO frame region driven by the frame stack
// pointer global. Allocation discipline is strict LIFO: frames are freed
// in exact reverse allocation order, and no free list exists. An
// out-of-order free corrupts the region; the model does not detect it,
// matching the emitted code.
type frameStack struct {
	sp uint32
}

// Alloc reserves size bytes at the given alignment. It returns the frame
// pointer to restore on free and the aligned base of the new frame.
func (f *frameStack) Alloc(size, align uint32) (oldSP, base uint32) {
	oldSP = f.sp
	base = roundUp(f.sp, align)
	f.sp = base + size
	return oldSP, base
}

// Free releases the most recent allocation by restoring the saved frame
// pointer.
func (f *frameStack) Free(oldSP uint32) {
	f.sp = oldSP
}

// SP returns the current frame pointer.
func (f *frameStack) SP() uint32 {
	return f.sp
}

// emitFrameAlloc emits the runtime counterpart of frameStack.Alloc: save
// the frame pointer global, round it up to align, and advance it past size
// bytes. It returns the scratch locals holding the saved pointer and the
// aligned base. align must be a power of two.
func (fc *funcCompiler) emitFrameAlloc(size, align uint32) (oldSP, base uint32) {
	oldSP = fc.allocScratch(ValI32)
	base = fc.allocScratch(ValI32)

	fc.op(opGlobalGet)
	fc.uleb(uint64(globalFrameSP))
	fc.op(opLocalTee)
	fc.uleb(uint64(oldSP))

	fc.op(opI32Const)
	fc.sleb(int64(align - 1))
	fc.op(opI32Add)
	fc.op(opI32Const)
	fc.sleb(int64(int32(^(align - 1))))
	fc.op(opI32And)
	fc.op(opLocalTee)
	fc.uleb(uint64(base))

	fc.op(opI32Const)
	fc.sleb(int64(size))
	fc.op(opI32Add)
	fc.op(opGlobalSet)
	fc.uleb(uint64(globalFrameSP))
	return oldSP, base
}

// emitFrameFree emits the runtime counterpart of frameStack.Free.
func (fc *funcCompiler) emitFrameFree(oldSP uint32) {
	fc.op(opLocalGet)
	fc.uleb(uint64(oldSP))
	fc.op(opGlobalSet)
	fc.uleb(uint64(globalFrameSP))
}
