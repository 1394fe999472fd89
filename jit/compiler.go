package jit

import "github.com/tinystack/jet/ir"

// compiler is implemented by the architecture-specific backends. The engine
// drives one instruction at a time; the backend emits machine code keeping
// the evaluation stack in a dedicated memory region indexed by a reserved
// byte-offset register.
//
// The call sequence is always compilePreamble, then zero or more value and
// arithmetic emissions, then compileEpilogue, then generate.
type compiler interface {
	// compilePreamble emits the function entry: frame setup reserving the
	// evaluation stack region on the machine stack.
	compilePreamble()
	compileLoadImm(o ir.LoadImm)
	compileAdd()
	compileSub()
	compileMul()
	compileDiv()
	// compileEpilogue emits the function exit: the top of the evaluation
	// stack (or zero when it is empty) is moved to the result register, the
	// frame is torn down and control returns to the caller.
	compileEpilogue()
	// generate assembles everything emitted so far into machine code.
	generate() []byte
}

const (
	// stackFrameSizeInBytes is the fixed evaluation stack region each emitted
	// function reserves on entry. 16-byte aligned so the host stack pointer
	// stays aligned across the frame.
	stackFrameSizeInBytes = 512
	// maxNativeStackDepth is the deepest evaluation stack the frame can hold.
	maxNativeStackDepth = stackFrameSizeInBytes / 8
)
