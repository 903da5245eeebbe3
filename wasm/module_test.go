// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"bytes"
	"errors"
	"testing"
)

func TestModuleBuilder_TypeDedup(t *testing.T) {
	b := newModuleBuilder()

	a := b.typeIndex([]ValType{ValF32}, []ValType{ValF32})
	c := b.typeIndex([]ValType{ValF32}, []ValType{ValF32})
	if a != c {
		t.Errorf("identical signatures got indices %d and %d", a, c)
	}

	d := b.typeIndex([]ValType{ValF32, ValF32}, []ValType{ValF32})
	if d == a {
		t.Error("distinct signatures share a type index")
	}

	// Params and results must not run together in the intern key.
	e := b.typeIndex([]ValType{ValF32, ValF32}, nil)
	f := b.typeIndex([]ValType{ValF32}, []ValType{ValF32})
	if e == f {
		t.Error("(f32,f32)->() and (f32)->(f32) share a type index")
	}
}

func TestModuleBuilder_ImportAfterDeclareFails(t *testing.T) {
	b := newModuleBuilder()

	if _, err := b.declareFunc(nil, nil); err != nil {
		t.Fatalf("declareFunc() error = %v", err)
	}
	_, err := b.importFunc("env", "sin", []ValType{ValF32}, []ValType{ValF32})
	if err == nil {
		t.Fatal("expected error importing after a declared function")
	}
	var wasmErr *Error
	if !errors.As(err, &wasmErr) || wasmErr.Kind != ErrInternalError {
		t.Errorf("error = %v, want ErrInternalError", err)
	}
}

func TestModuleBuilder_IndexSpace(t *testing.T) {
	b := newModuleBuilder()

	imp0, err := b.importFunc("env", "sin", []ValType{ValF32}, []ValType{ValF32})
	if err != nil {
		t.Fatalf("importFunc() error = %v", err)
	}
	imp1, err := b.importFunc("env", "cos", []ValType{ValF32}, []ValType{ValF32})
	if err != nil {
		t.Fatalf("importFunc() error = %v", err)
	}
	fn, err := b.declareFunc(nil, nil)
	if err != nil {
		t.Fatalf("declareFunc() error = %v", err)
	}

	if imp0 != 0 || imp1 != 1 {
		t.Errorf("import indices = %d, %d, want 0, 1", imp0, imp1)
	}
	if fn != 2 {
		t.Errorf("first module function index = %d, want 2", fn)
	}
}

func TestCompactLocals(t *testing.T) {
	groups := compactLocals([]ValType{ValI32, ValI32, ValF32, ValF32, ValF32, ValI32})
	want := []localGroup{
		{count: 2, valType: ValI32},
		{count: 3, valType: ValF32},
		{count: 1, valType: ValI32},
	}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Errorf("group %d = %+v, want %+v", i, groups[i], want[i])
		}
	}
}

func TestModuleBuilder_Build(t *testing.T) {
	b := newModuleBuilder()
	b.importMemory(16)
	b.addGlobal(ValI32, true, 0)

	idx, err := b.declareFunc(nil, []ValType{ValI32})
	if err != nil {
		t.Fatalf("declareFunc() error = %v", err)
	}
	b.addExport("main", idx)

	code := []byte{opI32Const, 0x2A} // i32.const 42
	if err := b.setBody(idx, nil, code); err != nil {
		t.Fatalf("setBody() error = %v", err)
	}

	out, err := b.build()
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}

	magic := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if !bytes.HasPrefix(out, magic) {
		t.Fatalf("module prefix = % x, want % x", out[:8], magic)
	}

	// Sections must appear in ascending id order.
	order := sectionOrder(out[8:])
	want := []byte{sectionType, sectionImport, sectionFunction, sectionGlobal, sectionExport, sectionCode}
	if len(order) != len(want) {
		t.Fatalf("section ids = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("section %d id = %d, want %d", i, order[i], want[i])
		}
	}

	if !bytes.Contains(out, []byte("main")) {
		t.Error("export name missing from encoded module")
	}
	if !bytes.Contains(out, []byte("memory")) {
		t.Error("memory import missing from encoded module")
	}
}

func TestModuleBuilder_BuildMissingBody(t *testing.T) {
	b := newModuleBuilder()
	if _, err := b.declareFunc(nil, nil); err != nil {
		t.Fatalf("declareFunc() error = %v", err)
	}
	if _, err := b.build(); err == nil {
		t.Error("expected error for declared function without body")
	}
}

// sectionOrder walks the section headers of an encoded module body. Section
// sizes in modules built here stay below 2^21, so three LEB bytes suffice.
func sectionOrder(buf []byte) []byte {
	var ids []byte
	for len(buf) > 0 {
		ids = append(ids, buf[0])
		size, n := readUleb(buf[1:])
		buf = buf[1+n+int(size):]
	}
	return ids
}

func readUleb(buf []byte) (uint64, int) {
	var v uint64
	for i := 0; i < len(buf); i++ {
		v |= uint64(buf[i]&0x7F) << (7 * i)
		if buf[i]&0x80 == 0 {
			return v, i + 1
		}
	}
	return v, len(buf)
}
