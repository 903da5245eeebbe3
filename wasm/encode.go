// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"encoding/binary"
	"math"
)

// appendUleb appends v in unsigned LEB128 form.
func appendUleb(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}

// appendSleb appends v in signed LEB128 form.
func appendSleb(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// appendF32 appends the IEEE 754 little-endian encoding of f.
func appendF32(buf []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
}

// appendName appends a length-prefixed UTF-8 name.
func appendName(buf []byte, s string) []byte {
	buf = appendUleb(buf, uint64(len(s)))
	return append(buf, s...)
}

// appendSection appends a section header followed by body.
func appendSection(buf []byte, id byte, body []byte) []byte {
	buf = append(buf, id)
	buf = appendUleb(buf, uint64(len(body)))
	return append(buf, body...)
}
