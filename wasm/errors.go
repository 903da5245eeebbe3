// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wasm

import "fmt"

// ErrorKind categorizes WebAssembly compilation errors.
type ErrorKind uint8

const (
	// ErrUnsupportedFeature indicates a shader feature not supported by the target.
	ErrUnsupportedFeature ErrorKind = iota

	// ErrUnsupportedType indicates a type that cannot be lowered for the target.
	ErrUnsupportedType

	// ErrDynamicArrayInSignature indicates a runtime-sized array crossing a
	// call boundary.
	ErrDynamicArrayInSignature

	// ErrTooManyParameters indicates a signature whose flattened slots exceed
	// the native-parameter budget.
	ErrTooManyParameters

	// ErrTypeConversion indicates an operand kind mismatch with no valid promotion.
	ErrTypeConversion

	// ErrInvalidSignature indicates a function signature the ABI cannot express.
	ErrInvalidSignature

	// ErrMissingBinding indicates a resource or stage binding could not be resolved.
	ErrMissingBinding

	// ErrLayoutOverflow indicates a memory region exceeded its size ceiling.
	ErrLayoutOverflow

	// ErrLayoutConflict indicates two values were assigned overlapping offsets.
	ErrLayoutConflict

	// ErrInvalidModule indicates the IR module is malformed.
	ErrInvalidModule

	// ErrInternalError indicates an internal compiler error.
	ErrInternalError
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnsupportedFeature:
		return "UnsupportedFeature"
	case ErrUnsupportedType:
		return "UnsupportedType"
	case ErrDynamicArrayInSignature:
		return "DynamicArrayInSignature"
	case ErrTooManyParameters:
		return "TooManyParameters"
	case ErrTypeConversion:
		return "TypeConversion"
	case ErrInvalidSignature:
		return "InvalidSignature"
	case ErrMissingBinding:
		return "MissingBinding"
	case ErrLayoutOverflow:
		return "LayoutOverflow"
	case ErrLayoutConflict:
		return "LayoutConflict"
	case ErrInvalidModule:
		return "InvalidModule"
	case ErrInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Error represents a WebAssembly compilation error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string

	// Function optionally names the function being compiled.
	Function string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("wasm %s in %q: %s", e.Kind, e.Function, e.Message)
	}
	return fmt.Sprintf("wasm %s: %s", e.Kind, e.Message)
}

// NewError creates a new WebAssembly backend error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a new WebAssembly backend error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InFunction returns a copy of the error tagged with a function name.
// The original error is returned unchanged if it already carries one.
func (e *Error) InFunction(name string) *Error {
	if e.Function != "" {
		return e
	}
	return &Error{Kind: e.Kind, Message: e.Message, Function: name}
}

// IsUnsupportedFeature returns true if the error is ErrUnsupportedFeature.
func (e *Error) IsUnsupportedFeature() bool {
	return e.Kind == ErrUnsupportedFeature
}

// IsInvalidSignature returns true if the error is ErrInvalidSignature.
func (e *Error) IsInvalidSignature() bool {
	return e.Kind == ErrInvalidSignature
}

// IsInternalError returns true if the error is ErrInternalError.
func (e *Error) IsInternalError() bool {
	return e.Kind == ErrInternalError
}
