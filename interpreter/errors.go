package interpreter

import "errors"

var (
	ErrStackUnderflow            = errors.New("stack underflow")
	ErrDivideByZero              = errors.New("divide by zero")
	ErrArgIndexOutOfRange        = errors.New("argument index out of range")
	ErrInsufficientCallArguments = errors.New("insufficient arguments on stack for call")
	ErrUnknownFunction           = errors.New("unknown function")
	ErrNoProgramContext          = errors.New("call executed outside of a program context")
)
