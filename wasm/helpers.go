// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

// Texture access lowers to calls into small helper functions emitted once
// per module and shared by every call site. A texture object in linear
// memory is {width u32, height u32} followed by tightly packed RGBA8
// texels in row-major order; helpers return one channel at a time as a
// normalized float.

// texHelper identifies one of the emitted texture helpers.
type texHelper uint8

const (
	texHelperSample texHelper = iota
	texHelperLoad
	texHelperStore
	texHelperSize

	numTexHelpers
)

// texHeaderSize is the byte offset of the first texel.
const texHeaderSize = 8

// asm is a minimal body assembler for the hand-written helpers, which
// have no IR behind them.
type asm struct {
	code   []byte
	params int
	extra  []ValType
}

func (a *asm) op(b byte) { a.code = append(a.code, b) }

func (a *asm) uleb(v uint64) { a.code = appendUleb(a.code, v) }

func (a *asm) sleb(v int64) { a.code = appendSleb(a.code, v) }

func (a *asm) i32Const(v int32) { a.op(opI32Const); a.sleb(int64(v)) }

func (a *asm) f32Const(v float32) { a.op(opF32Const); a.code = appendF32(a.code, v) }

func (a *asm) localGet(idx uint32) { a.op(opLocalGet); a.uleb(uint64(idx)) }
func (a *asm) localSet(idx uint32) { a.op(opLocalSet); a.uleb(uint64(idx)) }

func (a *asm) local(vt ValType) uint32 {
	idx := uint32(a.params + len(a.extra))
	a.extra = append(a.extra, vt)
	return idx
}

func (a *asm) loadI32(offset uint32) { a.op(opI32Load); a.uleb(2); a.uleb(uint64(offset)) }
func (a *asm) loadU8(offset uint32)  { a.op(opI32Load8U); a.uleb(0); a.uleb(uint64(offset)) }
func (a *asm) storeU8(offset uint32) { a.op(opI32Store8); a.uleb(0); a.uleb(uint64(offset)) }

// clampIndex emits idx = min(max(src, 0), limit-1) into dst, where src and
// limit are locals holding an i32 coordinate and a dimension.
func (a *asm) clampIndex(dst, src, limit uint32) {
	a.i32Const(0)
	a.localGet(src)
	a.localGet(src)
	a.i32Const(0)
	a.op(opI32LtS)
	a.op(opSelect)
	a.localSet(dst)

	a.localGet(limit)
	a.i32Const(1)
	a.op(opI32Sub)
	a.localGet(dst)
	a.localGet(dst)
	a.localGet(limit)
	a.i32Const(1)
	a.op(opI32Sub)
	a.op(opI32GtS)
	a.op(opSelect)
	a.localSet(dst)
}

// texelAddress pushes tex + ((y*width + x) << 2) + channel; the header
// offset is folded into the memory instruction immediates.
func (a *asm) texelAddress(tex, x, y, w, channel uint32) {
	a.localGet(tex)
	a.localGet(y)
	a.localGet(w)
	a.op(opI32Mul)
	a.localGet(x)
	a.op(opI32Add)
	a.i32Const(2)
	a.op(opI32Shl)
	a.op(opI32Add)
	a.localGet(channel)
	a.op(opI32Add)
}

// loadDims reads the texture header into the w and h locals.
func (a *asm) loadDims(tex, w, h uint32) {
	a.localGet(tex)
	a.loadI32(0)
	a.localSet(w)
	a.localGet(tex)
	a.loadI32(4)
	a.localSet(h)
}

// texSampleBody samples channel c at normalized (u, v) with clamping:
// (tex i32, u f32, v f32, c i32) -> f32.
func texSampleBody() *asm {
	a := &asm{params: 4}
	const tex, u, v, ch = 0, 1, 2, 3
	w, h := a.local(ValI32), a.local(ValI32)
	xi, yi := a.local(ValI32), a.local(ValI32)

	a.loadDims(tex, w, h)

	a.localGet(u)
	a.localGet(w)
	a.op(opF32ConvertI32S)
	a.op(opF32Mul)
	a.op(opI32TruncF32S)
	a.localSet(xi)
	a.clampIndex(xi, xi, w)

	a.localGet(v)
	a.localGet(h)
	a.op(opF32ConvertI32S)
	a.op(opF32Mul)
	a.op(opI32TruncF32S)
	a.localSet(yi)
	a.clampIndex(yi, yi, h)

	a.texelAddress(tex, xi, yi, w, ch)
	a.loadU8(texHeaderSize)
	a.op(opF32ConvertI32U)
	a.f32Const(255)
	a.op(opF32Div)
	return a
}

// texLoadBody reads channel c at integer (x, y) with clamping:
// (tex i32, x i32, y i32, c i32) -> f32.
func texLoadBody() *asm {
	a := &asm{params: 4}
	const tex, x, y, ch = 0, 1, 2, 3
	w, h := a.local(ValI32), a.local(ValI32)
	xi, yi := a.local(ValI32), a.local(ValI32)

	a.loadDims(tex, w, h)
	a.clampIndex(xi, x, w)
	a.clampIndex(yi, y, h)

	a.texelAddress(tex, xi, yi, w, ch)
	a.loadU8(texHeaderSize)
	a.op(opF32ConvertI32U)
	a.f32Const(255)
	a.op(opF32Div)
	return a
}

// texStoreBody writes channel c at integer (x, y), converting the value
// from normalized float to a byte: (tex i32, x i32, y i32, c i32, val f32).
func texStoreBody() *asm {
	a := &asm{params: 5}
	const tex, x, y, ch, val = 0, 1, 2, 3, 4
	w, h := a.local(ValI32), a.local(ValI32)
	xi, yi := a.local(ValI32), a.local(ValI32)

	a.loadDims(tex, w, h)
	a.clampIndex(xi, x, w)
	a.clampIndex(yi, y, h)

	a.texelAddress(tex, xi, yi, w, ch)

	a.localGet(val)
	a.f32Const(0)
	a.op(opF32Max)
	a.f32Const(1)
	a.op(opF32Min)
	a.f32Const(255)
	a.op(opF32Mul)
	a.op(opF32Nearest)
	a.op(opI32TruncF32S)

	a.storeU8(texHeaderSize)
	return a
}

// texSizeBody returns width for axis 0 and height otherwise:
// (tex i32, axis i32) -> i32.
func texSizeBody() *asm {
	a := &asm{params: 2}
	const tex, axis = 0, 1
	a.localGet(tex)
	a.loadI32(0)
	a.localGet(tex)
	a.loadI32(4)
	a.localGet(axis)
	a.op(opI32Eqz)
	a.op(opSelect)
	return a
}

// requireTexHelper emits the helper on first use and returns its function
// index.
func (c *compiler) requireTexHelper(h texHelper) (uint32, error) {
	if c.texHelperSet[h] {
		return c.texHelperIdx[h], nil
	}

	var params, results []ValType
	var body *asm
	var name string
	switch h {
	case texHelperSample:
		params = []ValType{ValI32, ValF32, ValF32, ValI32}
		results = []ValType{ValF32}
		body = texSampleBody()
		name = "tex_sample2d"
	case texHelperLoad:
		params = []ValType{ValI32, ValI32, ValI32, ValI32}
		results = []ValType{ValF32}
		body = texLoadBody()
		name = "tex_load2d"
	case texHelperStore:
		params = []ValType{ValI32, ValI32, ValI32, ValI32, ValF32}
		body = texStoreBody()
		name = "tex_store2d"
	case texHelperSize:
		params = []ValType{ValI32, ValI32}
		results = []ValType{ValI32}
		body = texSizeBody()
		name = "tex_size2d"
	default:
		return 0, Errorf(ErrInternalError, "unknown texture helper %d", h)
	}

	idx, err := c.builder.declareFunc(params, results)
	if err != nil {
		return 0, err
	}
	if err := c.builder.setBody(idx, body.extra, body.code); err != nil {
		return 0, err
	}
	if c.opts.DebugStepping {
		c.builder.addExport("fn$"+name, idx)
	}
	c.texHelperIdx[h] = idx
	c.texHelperSet[h] = true
	return idx, nil
}
