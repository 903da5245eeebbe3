// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import "testing"

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ErrUnsupportedFeature, "UnsupportedFeature"},
		{ErrUnsupportedType, "UnsupportedType"},
		{ErrDynamicArrayInSignature, "DynamicArrayInSignature"},
		{ErrTooManyParameters, "TooManyParameters"},
		{ErrTypeConversion, "TypeConversion"},
		{ErrInvalidSignature, "InvalidSignature"},
		{ErrMissingBinding, "MissingBinding"},
		{ErrLayoutOverflow, "LayoutOverflow"},
		{ErrLayoutConflict, "LayoutConflict"},
		{ErrInvalidModule, "InvalidModule"},
		{ErrInternalError, "InternalError"},
		{ErrorKind(200), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestError_Error(t *testing.T) {
	err := NewError(ErrMissingBinding, "no binding")
	want := "wasm MissingBinding: no binding"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	tagged := err.InFunction("main")
	want = `wasm MissingBinding in "main": no binding`
	if tagged.Error() != want {
		t.Errorf("Error() = %q, want %q", tagged.Error(), want)
	}
}

func TestError_InFunction(t *testing.T) {
	err := Errorf(ErrUnsupportedType, "width %d", 3).InFunction("outer")

	// A second tag must not overwrite the first.
	again := err.InFunction("inner")
	if again.Function != "outer" {
		t.Errorf("Function = %q, want %q", again.Function, "outer")
	}
}

func TestError_KindPredicates(t *testing.T) {
	if !NewError(ErrUnsupportedFeature, "x").IsUnsupportedFeature() {
		t.Error("IsUnsupportedFeature() = false")
	}
	if !NewError(ErrInvalidSignature, "x").IsInvalidSignature() {
		t.Error("IsInvalidSignature() = false")
	}
	if !NewError(ErrInternalError, "x").IsInternalError() {
		t.Error("IsInternalError() = false")
	}
	if NewError(ErrLayoutConflict, "x").IsInternalError() {
		t.Error("IsInternalError() = true for layout conflict")
	}
}
