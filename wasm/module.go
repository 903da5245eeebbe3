// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import (
	"fortio.org/safecast"
)

// funcSig is one entry of the type section.
type funcSig struct {
	params  []ValType
	results []ValType
}

type funcImport struct {
	module, name string
	typeIdx      uint32
}

type globalEntry struct {
	valType ValType
	mutable bool
	init    int32
}

type exportEntry struct {
	name  string
	index uint32
}

// moduleBuilder accumulates the sections of one output module and encodes
// them in the required order. Function imports must all be registered
// before the first module function, so the function index space stays
// stable while bodies are being compiled.
type moduleBuilder struct {
	sigs     []funcSig
	sigCache map[string]uint32

	memoryMin uint32
	imports   []funcImport

	funcSigs []uint32 // type index per module function
	bodies   [][]byte // encoded locals + code per module function

	globals []globalEntry
	exports []exportEntry
}

func newModuleBuilder() *moduleBuilder {
	return &moduleBuilder{sigCache: make(map[string]uint32)}
}

// typeIndex interns a function signature and returns its type index.
func (b *moduleBuilder) typeIndex(params, results []ValType) uint32 {
	key := sigKey(params, results)
	if idx, ok := b.sigCache[key]; ok {
		return idx
	}
	idx := uint32(len(b.sigs))
	b.sigs = append(b.sigs, funcSig{params: params, results: results})
	b.sigCache[key] = idx
	return idx
}

func sigKey(params, results []ValType) string {
	key := make([]byte, 0, len(params)+len(results)+1)
	for _, p := range params {
		key = append(key, byte(p))
	}
	key = append(key, 0)
	for _, r := range results {
		key = append(key, byte(r))
	}
	return string(key)
}

// importMemory records the linear-memory import with a minimum page count.
func (b *moduleBuilder) importMemory(minPages uint32) {
	b.memoryMin = minPages
}

// importFunc registers a host function import and returns its index in the
// function index space.
func (b *moduleBuilder) importFunc(module, name string, params, results []ValType) (uint32, error) {
	if len(b.funcSigs) > 0 {
		return 0, NewError(ErrInternalError, "function import registered after module functions")
	}
	idx, err := safecast.Conv[uint32](len(b.imports))
	if err != nil {
		return 0, NewError(ErrInternalError, err.Error())
	}
	b.imports = append(b.imports, funcImport{
		module:  module,
		name:    name,
		typeIdx: b.typeIndex(params, results),
	})
	return idx, nil
}

// declareFunc reserves a module function slot and returns its index in the
// function index space. The body is attached later with setBody.
func (b *moduleBuilder) declareFunc(params, results []ValType) (uint32, error) {
	idx, err := safecast.Conv[uint32](len(b.imports) + len(b.funcSigs))
	if err != nil {
		return 0, NewError(ErrInternalError, err.Error())
	}
	b.funcSigs = append(b.funcSigs, b.typeIndex(params, results))
	b.bodies = append(b.bodies, nil)
	return idx, nil
}

// setBody attaches the compiled body of a declared function. extraLocals
// lists the locals beyond the parameters; runs of equal types are
// compacted into the groups the code section expects.
func (b *moduleBuilder) setBody(funcIdx uint32, extraLocals []ValType, code []byte) error {
	slot := int(funcIdx) - len(b.imports)
	if slot < 0 || slot >= len(b.funcSigs) {
		return Errorf(ErrInternalError, "setBody on index %d, which is not a module function", funcIdx)
	}

	var body []byte
	groups := compactLocals(extraLocals)
	body = appendUleb(body, uint64(len(groups)))
	for _, g := range groups {
		body = appendUleb(body, uint64(g.count))
		body = append(body, byte(g.valType))
	}
	body = append(body, code...)
	body = append(body, opEnd)
	b.bodies[slot] = body
	return nil
}

type localGroup struct {
	count   uint32
	valType ValType
}

// compactLocals merges adjacent locals of the same type into one group.
func compactLocals(types []ValType) []localGroup {
	var groups []localGroup
	for _, t := range types {
		if n := len(groups); n > 0 && groups[n-1].valType == t {
			groups[n-1].count++
			continue
		}
		groups = append(groups, localGroup{count: 1, valType: t})
	}
	return groups
}

// addGlobal declares a mutable or immutable i32/f32 global with a constant
// initializer and returns its index.
func (b *moduleBuilder) addGlobal(vt ValType, mutable bool, init int32) uint32 {
	idx := uint32(len(b.globals))
	b.globals = append(b.globals, globalEntry{valType: vt, mutable: mutable, init: init})
	return idx
}

// addExport exports a function index under the given name.
func (b *moduleBuilder) addExport(name string, funcIdx uint32) {
	b.exports = append(b.exports, exportEntry{name: name, index: funcIdx})
}

// build encodes the module: magic, version, then the type, import,
// function, global, export, and code sections in order.
func (b *moduleBuilder) build() ([]byte, error) {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	var sec []byte
	sec = appendUleb(sec, uint64(len(b.sigs)))
	for _, sig := range b.sigs {
		sec = append(sec, 0x60)
		sec = appendUleb(sec, uint64(len(sig.params)))
		for _, p := range sig.params {
			sec = append(sec, byte(p))
		}
		sec = appendUleb(sec, uint64(len(sig.results)))
		for _, r := range sig.results {
			sec = append(sec, byte(r))
		}
	}
	out = appendSection(out, sectionType, sec)

	sec = sec[:0]
	sec = appendUleb(sec, uint64(len(b.imports))+1)
	sec = appendName(sec, "env")
	sec = appendName(sec, "memory")
	sec = append(sec, kindMemory, 0x00) // limits: min only
	sec = appendUleb(sec, uint64(b.memoryMin))
	for _, imp := range b.imports {
		sec = appendName(sec, imp.module)
		sec = appendName(sec, imp.name)
		sec = append(sec, kindFunc)
		sec = appendUleb(sec, uint64(imp.typeIdx))
	}
	out = appendSection(out, sectionImport, sec)

	sec = sec[:0]
	sec = appendUleb(sec, uint64(len(b.funcSigs)))
	for _, typeIdx := range b.funcSigs {
		sec = appendUleb(sec, uint64(typeIdx))
	}
	out = appendSection(out, sectionFunction, sec)

	sec = sec[:0]
	sec = appendUleb(sec, uint64(len(b.globals)))
	for _, g := range b.globals {
		sec = append(sec, byte(g.valType))
		if g.mutable {
			sec = append(sec, 0x01)
		} else {
			sec = append(sec, 0x00)
		}
		sec = append(sec, opI32Const)
		sec = appendSleb(sec, int64(g.init))
		sec = append(sec, opEnd)
	}
	out = appendSection(out, sectionGlobal, sec)

	sec = sec[:0]
	sec = appendUleb(sec, uint64(len(b.exports)))
	for _, e := range b.exports {
		sec = appendName(sec, e.name)
		sec = append(sec, kindFunc)
		sec = appendUleb(sec, uint64(e.index))
	}
	out = appendSection(out, sectionExport, sec)

	sec = sec[:0]
	sec = appendUleb(sec, uint64(len(b.bodies)))
	for i, body := range b.bodies {
		if body == nil {
			return nil, Errorf(ErrInternalError, "module function %d has no body", len(b.imports)+i)
		}
		sec = appendUleb(sec, uint64(len(body)))
		sec = append(sec, body...)
	}
	out = appendSection(out, sectionCode, sec)

	return out, nil
}
