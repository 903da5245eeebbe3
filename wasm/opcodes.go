// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

// ValType is a WebAssembly value type byte.
type ValType byte

const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
	ValF32 ValType = 0x7D
	ValF64 ValType = 0x7C
)

// String returns the textual name of the value type.
func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Section IDs in the binary format.
const (
	sectionType     byte = 1
	sectionImport   byte = 2
	sectionFunction byte = 3
	sectionGlobal   byte = 6
	sectionExport   byte = 7
	sectionCode     byte = 10
)

// Import/export kind bytes.
const (
	kindFunc   byte = 0x00
	kindMemory byte = 0x02
	kindGlobal byte = 0x03
)

// blockVoid is the block type for blocks that yield no value.
const blockVoid byte = 0x40

// Control instructions.
const (
	opUnreachable byte = 0x00
	opNop         byte = 0x01
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opIf          byte = 0x04
	opElse        byte = 0x05
	opEnd         byte = 0x0B
	opBr          byte = 0x0C
	opBrIf        byte = 0x0D
	opReturn      byte = 0x0F
	opCall        byte = 0x10
)

// Parametric instructions.
const (
	opDrop   byte = 0x1A
	opSelect byte = 0x1B
)

// Variable instructions.
const (
	opLocalGet  byte = 0x20
	opLocalSet  byte = 0x21
	opLocalTee  byte = 0x22
	opGlobalGet byte = 0x23
	opGlobalSet byte = 0x24
)

// Memory instructions.
const (
	opI32Load   byte = 0x28
	opF32Load   byte = 0x2A
	opI32Load8U byte = 0x2D
	opI32Store  byte = 0x36
	opF32Store  byte = 0x38
	opI32Store8 byte = 0x3A
)

// Constant instructions.
const (
	opI32Const byte = 0x41
	opF32Const byte = 0x43
)

// i32 comparison instructions.
const (
	opI32Eqz byte = 0x45
	opI32Eq  byte = 0x46
	opI32Ne  byte = 0x47
	opI32LtS byte = 0x48
	opI32LtU byte = 0x49
	opI32GtS byte = 0x4A
	opI32GtU byte = 0x4B
	opI32LeS byte = 0x4C
	opI32LeU byte = 0x4D
	opI32GeS byte = 0x4E
	opI32GeU byte = 0x4F
)

// f32 comparison instructions.
const (
	opF32Eq byte = 0x5B
	opF32Ne byte = 0x5C
	opF32Lt byte = 0x5D
	opF32Gt byte = 0x5E
	opF32Le byte = 0x5F
	opF32Ge byte = 0x60
)

// i32 numeric instructions.
const (
	opI32Add  byte = 0x6A
	opI32Sub  byte = 0x6B
	opI32Mul  byte = 0x6C
	opI32DivS byte = 0x6D
	opI32DivU byte = 0x6E
	opI32RemS byte = 0x6F
	opI32RemU byte = 0x70
	opI32And  byte = 0x71
	opI32Or   byte = 0x72
	opI32Xor  byte = 0x73
	opI32Shl  byte = 0x74
	opI32ShrS byte = 0x75
	opI32ShrU byte = 0x76
)

// f32 numeric instructions.
const (
	opF32Abs      byte = 0x8B
	opF32Neg      byte = 0x8C
	opF32Ceil     byte = 0x8D
	opF32Floor    byte = 0x8E
	opF32Trunc    byte = 0x8F
	opF32Nearest  byte = 0x90
	opF32Sqrt     byte = 0x91
	opF32Add      byte = 0x92
	opF32Sub      byte = 0x93
	opF32Mul      byte = 0x94
	opF32Div      byte = 0x95
	opF32Min      byte = 0x96
	opF32Max      byte = 0x97
	opF32Copysign byte = 0x98
)

// Conversion instructions.
const (
	opI32TruncF32S      byte = 0xA8
	opI32TruncF32U      byte = 0xA9
	opF32ConvertI32S    byte = 0xB2
	opF32ConvertI32U    byte = 0xB3
	opI32ReinterpretF32 byte = 0xBC
	opF32ReinterpretI32 byte = 0xBE
)
