// Package jit compiles function bodies to native machine code executed
// directly on the host. Backends exist for amd64 and arm64. Compilation is
// best effort: a body the backends cannot express yields no artifact rather
// than an error, and callers fall back to the interpreter.
package jit

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/tinystack/jet/ir"
	"github.com/tinystack/jet/platform"
)

// CompiledFunction is an executable rendition of a single function body. The
// code segment is page-allocated and mapped read+execute. Callers must Close
// a CompiledFunction to release the mapping.
type CompiledFunction struct {
	codeSegment []byte
}

// Invoke runs the native code on the current goroutine's stack and returns
// the function result.
func (f *CompiledFunction) Invoke() int64 {
	return nativecall(uintptr(unsafe.Pointer(&f.codeSegment[0])))
}

// Disassemble renders the code segment as host assembly, one instruction per
// line.
func (f *CompiledFunction) Disassemble() (string, error) {
	return disassemble(f.codeSegment)
}

// Close releases the executable mapping. The CompiledFunction must not be
// invoked afterwards.
func (f *CompiledFunction) Close() error {
	code := f.codeSegment
	f.codeSegment = nil
	return platform.MunmapCodeSegment(code)
}

// CompileProgram compiles the entry function of p. The artifact is absent
// (nil, nil) when the entry function cannot be expressed natively, for
// example when it takes arguments or calls other functions.
func CompileProgram(p *ir.Program) (*CompiledFunction, error) {
	if p == nil {
		return nil, ir.ErrNilProgram
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	main := p.Main()
	if main == nil {
		return nil, ir.ErrNoMainFunction
	}
	if main.Arity() != 0 {
		return nil, nil
	}
	return CompileInstructions(main.Body)
}

// CompileInstructions compiles a single nullary function body. A body using
// unsupported instructions, or one whose evaluation stack would underflow or
// outgrow the native frame, produces no artifact and no error.
func CompileInstructions(body []ir.Instruction) (*CompiledFunction, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: cannot compile nil body", ir.ErrNilInstructions)
	}

	if _, err := scanStackUse(body); err != nil {
		if errors.Is(err, ErrUnsupportedInstruction) || errors.Is(err, ErrStackImbalance) || errors.Is(err, ErrStackOverflow) {
			return nil, nil
		}
		return nil, err
	}

	c, err := newCompiler()
	if err != nil {
		if errors.Is(err, ErrUnsupportedArchitecture) {
			return nil, nil
		}
		return nil, err
	}

	c.compilePreamble()
	for _, inst := range body {
		switch o := inst.(type) {
		case ir.LoadImm:
			c.compileLoadImm(o)
		case ir.Add:
			c.compileAdd()
		case ir.Sub:
			c.compileSub()
		case ir.Mul:
			c.compileMul()
		case ir.Div:
			c.compileDiv()
		case ir.Print:
			// Observational only. The native rendition computes the result;
			// printing remains an interpreter facility.
		case ir.Return:
		default:
			// scanStackUse already refused anything else.
			panic(fmt.Errorf("BUG: unexpected instruction %s", inst.Kind()))
		}
		if inst.Kind() == ir.KindReturn {
			break
		}
	}
	c.compileEpilogue()

	compiled, err := install(c.generate())
	if err != nil {
		// Page allocation or protection failure is a reason to fall back to
		// interpretation, not to fail the caller.
		return nil, nil
	}
	return compiled, nil
}

// scanStackUse simulates the evaluation stack over the body, stopping at the
// first return. It reports the peak depth, or an error when the body reads
// below the stack bottom, exceeds the fixed native frame, or uses an
// instruction without a native rendition.
func scanStackUse(body []ir.Instruction) (maxDepth int, err error) {
	depth := 0
	for _, inst := range body {
		switch inst.Kind() {
		case ir.KindLoadImm:
			depth++
			if depth > maxNativeStackDepth {
				return 0, fmt.Errorf("%w: %d values", ErrStackOverflow, depth)
			}
		case ir.KindAdd, ir.KindSub, ir.KindMul, ir.KindDiv:
			if depth < 2 {
				return 0, fmt.Errorf("%w: %s needs two operands", ErrStackImbalance, inst.Kind())
			}
			depth--
		case ir.KindPrint:
			if depth < 1 {
				return 0, fmt.Errorf("%w: %s needs one operand", ErrStackImbalance, inst.Kind())
			}
		case ir.KindReturn:
			return maxDepth, nil
		default:
			return 0, fmt.Errorf("%w: %s", ErrUnsupportedInstruction, inst.Kind())
		}
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth, nil
}

// install moves assembled code into an executable mapping. The mapping is
// writable during the copy and read+execute before the first call.
func install(code []byte) (*CompiledFunction, error) {
	mem, err := platform.MmapCodeSegment(len(code))
	if err != nil {
		return nil, err
	}
	copy(mem, code)
	if err := platform.MprotectRX(mem); err != nil {
		_ = platform.MunmapCodeSegment(mem)
		return nil, err
	}
	return &CompiledFunction{codeSegment: mem}, nil
}
