// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package wasm provides a WebAssembly backend for shadevm.
//
// This package lowers shadevm's IR into a binary WebAssembly module that
// runs on a scalar stack machine. Vectors and matrices have no native
// representation on the target, so every value is lowered one scalar
// component at a time: an expression that produces a vec4 is visited four
// times, once per component, and each visit emits the scalar instruction
// sequence for that component alone.
//
// Shader inputs and outputs travel through five regions of linear memory
// (attributes, uniforms, varyings, private/output, texture data), each
// anchored by a mutable i32 global. A sixth global holds the frame stack
// pointer used for by-frame parameter passing. Entry points receive the
// six base addresses as native parameters and install them in a prologue,
// so the host configures memory once per dispatch.
//
// Function parameters are classified into two shapes: small values
// (16 bytes or fewer) are flattened into native scalar parameters, and
// larger aggregates are copied into a LIFO frame region and passed by
// pointer. See ClassifyFunction for the exact rules.
package wasm
