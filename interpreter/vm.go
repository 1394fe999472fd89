// Package interpreter is the reference implementation of the jet instruction
// semantics: a stack virtual machine over ir.Program values. The code
// generator is validated against it.
package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/tinystack/jet/ir"
)

// VirtualMachine executes instruction sequences and multi-function programs.
// Instances are not safe for concurrent use without external synchronization.
type VirtualMachine struct {
	operands *operandStack
	frames   []*callFrame
	// program is non-nil only while ExecuteProgram runs; Call resolves
	// against it.
	program *ir.Program
	out     io.Writer
}

func NewVirtualMachine() *VirtualMachine {
	return &VirtualMachine{
		operands: newOperandStack(),
		out:      os.Stdout,
	}
}

// SetOutput redirects the print instruction's side channel, which defaults to
// os.Stdout.
func (vm *VirtualMachine) SetOutput(w io.Writer) { vm.out = w }

// trap is the panic payload used to unwind the VM on a runtime error. Both
// stacks are cleared before the error surfaces to the caller.
type trap struct{ err error }

func raise(err error) { panic(trap{err}) }

func (vm *VirtualMachine) handleTrap(errRet *error) {
	v := recover()
	if v == nil {
		return
	}
	// Stack unwind.
	vm.operands.reset()
	vm.frames = vm.frames[:0]
	vm.program = nil
	if t, ok := v.(trap); ok {
		*errRet = t.err
	} else if err, ok := v.(error); ok {
		*errRet = err
	} else {
		*errRet = fmt.Errorf("runtime error: %v", v)
	}
}

// Execute runs a flat instruction sequence inside a synthetic zero-argument
// frame. It returns the value of the first return instruction, or the current
// top of the stack when the sequence ends without one, or zero when the stack
// is empty.
func (vm *VirtualMachine) Execute(instructions []ir.Instruction) (ret int64, err error) {
	if instructions == nil {
		return 0, ir.ErrNilInstructions
	}
	vm.operands.reset()
	vm.frames = vm.frames[:0]
	vm.program = nil

	defer vm.handleTrap(&err)
	vm.pushFrame(&callFrame{functionName: ir.MainFunctionName})
	defer vm.popFrame()
	ret = vm.run(instructions, 0)
	return
}

// ExecuteProgram runs a program by invoking its Main function with no
// arguments.
func (vm *VirtualMachine) ExecuteProgram(program *ir.Program) (ret int64, err error) {
	if program == nil {
		return 0, ir.ErrNilProgram
	}
	if err := program.Validate(); err != nil {
		return 0, err
	}
	main := program.Main()
	if main == nil {
		return 0, ir.ErrNoMainFunction
	}

	vm.operands.reset()
	vm.frames = vm.frames[:0]
	vm.program = program
	defer func() { vm.program = nil }()

	defer vm.handleTrap(&err)
	ret = vm.callFunction(main, nil)
	return
}

// callFunction executes one function body in a fresh frame. The frame is
// popped even when a trap unwinds through it.
func (vm *VirtualMachine) callFunction(f *ir.Function, args []int64) int64 {
	vm.pushFrame(&callFrame{functionName: f.Name, arguments: args})
	defer vm.popFrame()
	return vm.run(f.Body, vm.operands.depth())
}

// run iterates a body until a return instruction or the end of the sequence.
// baseDepth is the operand depth owned by callers; the result is whatever the
// body left above it, or zero when it left nothing.
func (vm *VirtualMachine) run(body []ir.Instruction, baseDepth int) int64 {
	for _, inst := range body {
		switch op := inst.(type) {
		case ir.LoadImm:
			vm.operands.push(op.Value)
		case ir.LoadArg:
			args := vm.activeFrame().arguments
			if int(op.Index) >= len(args) {
				raise(fmt.Errorf("loadarg %d with arity %d: %w", op.Index, len(args), ErrArgIndexOutOfRange))
			}
			vm.operands.push(args[op.Index])
		case ir.Add:
			vm.require(2, op)
			b := vm.operands.pop()
			a := vm.operands.pop()
			vm.operands.push(a + b)
		case ir.Sub:
			vm.require(2, op)
			b := vm.operands.pop()
			a := vm.operands.pop()
			vm.operands.push(a - b)
		case ir.Mul:
			vm.require(2, op)
			b := vm.operands.pop()
			a := vm.operands.pop()
			vm.operands.push(a * b)
		case ir.Div:
			vm.require(2, op)
			// The divisor is inspected before any pop so the stack is
			// untouched when the trap fires.
			if vm.operands.peek() == 0 {
				raise(ErrDivideByZero)
			}
			b := vm.operands.pop()
			a := vm.operands.pop()
			vm.operands.push(a / b)
		case ir.Print:
			vm.require(1, op)
			fmt.Fprintf(vm.out, "%d\n", vm.operands.peek())
		case ir.Return:
			return vm.result(baseDepth)
		case ir.Call:
			vm.call(op)
		default:
			raise(fmt.Errorf("unhandled instruction %s", inst.Kind()))
		}
	}
	return vm.result(baseDepth)
}

// call implements the calling convention: pop the callee's arity off the
// caller's stack (the last popped value becomes argument zero), execute the
// body recursively, then push the callee's result.
func (vm *VirtualMachine) call(op ir.Call) {
	if vm.program == nil {
		raise(fmt.Errorf("call %s: %w", op.Name, ErrNoProgramContext))
	}
	callee := vm.program.Function(op.Name)
	if callee == nil {
		raise(fmt.Errorf("call %s: %w", op.Name, ErrUnknownFunction))
	}
	arity := callee.Arity()
	if vm.operands.depth() < arity {
		raise(fmt.Errorf("call %s requires %d arguments but the stack holds %d: %w",
			op.Name, arity, vm.operands.depth(), ErrInsufficientCallArguments))
	}
	args := make([]int64, arity)
	for i := arity - 1; i >= 0; i-- {
		args[i] = vm.operands.pop()
	}
	vm.operands.push(vm.callFunction(callee, args))
}

// result reads the value a body produced above baseDepth and discards
// everything the body left behind.
func (vm *VirtualMachine) result(baseDepth int) int64 {
	var ret int64
	if vm.operands.depth() > baseDepth {
		ret = vm.operands.peek()
	}
	vm.operands.truncate(baseDepth)
	return ret
}

func (vm *VirtualMachine) require(n int, inst ir.Instruction) {
	if vm.operands.depth() < n {
		raise(fmt.Errorf("%s: %w", inst, ErrStackUnderflow))
	}
}

func (vm *VirtualMachine) activeFrame() *callFrame {
	return vm.frames[len(vm.frames)-1]
}

func (vm *VirtualMachine) pushFrame(f *callFrame) {
	vm.frames = append(vm.frames, f)
}

func (vm *VirtualMachine) popFrame() {
	if n := len(vm.frames); n > 0 {
		vm.frames = vm.frames[:n-1]
	}
}
