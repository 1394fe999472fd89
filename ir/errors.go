package ir

import "errors"

var (
	ErrNoMainFunction  = errors.New("program has no Main function")
	ErrNilProgram      = errors.New("nil program")
	ErrNilInstructions = errors.New("nil instruction sequence")
	ErrEmptyCallTarget = errors.New("call target is empty")
)
