package jit

import "errors"

var (
	// ErrUnsupportedInstruction means the body uses an instruction the native
	// backends cannot express, such as a call into another function.
	ErrUnsupportedInstruction = errors.New("instruction not supported by native compilation")
	// ErrUnsupportedArchitecture means no backend exists for runtime.GOARCH.
	ErrUnsupportedArchitecture = errors.New("unsupported GOARCH")
	// ErrStackImbalance means an instruction would read below the bottom of
	// the evaluation stack, detected before any code is emitted.
	ErrStackImbalance = errors.New("evaluation stack underflow in function body")
	// ErrStackOverflow means the body needs a deeper evaluation stack than the
	// fixed frame an emitted function reserves.
	ErrStackOverflow = errors.New("evaluation stack exceeds the native frame")
)
