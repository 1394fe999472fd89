//go:build amd64
// +build amd64

package jit

// This file implements the compiler for the amd64/x86_64 target.
// Please refer to https://www.felixcloutier.com/x86/index.html
// if unfamiliar with amd64 instructions used here.
// Note that the x86 pkg prefixes all instructions with "A",
// e.g. MOVQ is given as x86.AMOVQ.

import (
	"fmt"

	asm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/tinystack/jet/ir"
)

// nativecall is implemented in jitcall_amd64.s as a Go Assembler function.
// codeSegment is the address of the first instruction of the compiled code;
// the function result arrives in AX.
func nativecall(codeSegment uintptr) int64

// Register allocation is fixed. The evaluation stack lives in the frame
// reserved by the preamble; the base register points at its bottom and the
// offset register holds the current height in bytes.
const (
	reservedRegisterForStackBase   = x86.REG_R12
	reservedRegisterForStackOffset = x86.REG_R10
	// resultRegister doubles as the dividend register as IDIV requires.
	resultRegister    = x86.REG_AX
	secondaryRegister = x86.REG_CX
)

func newCompiler() (compiler, error) {
	b, err := asm.NewBuilder("amd64", 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	return &amd64Compiler{builder: b}, nil
}

type amd64Compiler struct {
	builder *asm.Builder
	// Set a jmp kind instruction where you want the next coming instruction
	// as the destination of the jmp.
	setJmpOrigins []*obj.Prog
}

func (c *amd64Compiler) newProg() (prog *obj.Prog) {
	prog = c.builder.NewProg()
	return
}

func (c *amd64Compiler) addInstruction(prog *obj.Prog) {
	c.builder.AddInstruction(prog)
	for _, origin := range c.setJmpOrigins {
		origin.To.SetTarget(prog)
	}
	c.setJmpOrigins = nil
}

func (c *amd64Compiler) addSetJmpOrigins(progs ...*obj.Prog) {
	c.setJmpOrigins = append(c.setJmpOrigins, progs...)
}

func (c *amd64Compiler) compileConstToRegisterInstruction(instruction obj.As, constValue int64, destinationRegister int16) {
	prog := c.newProg()
	prog.As = instruction
	prog.From.Type = obj.TYPE_CONST
	prog.From.Offset = constValue
	prog.To.Type = obj.TYPE_REG
	prog.To.Reg = destinationRegister
	c.addInstruction(prog)
}

func (c *amd64Compiler) compileRegisterToRegisterInstruction(instruction obj.As, from, to int16) {
	prog := c.newProg()
	prog.As = instruction
	prog.From.Type = obj.TYPE_REG
	prog.From.Reg = from
	prog.To.Type = obj.TYPE_REG
	prog.To.Reg = to
	c.addInstruction(prog)
}

// compileStackToRegisterInstruction reads the value at the given byte offset
// relative to the current stack height into a register.
func (c *amd64Compiler) compileStackToRegisterInstruction(instruction obj.As, offsetConst int64, destinationRegister int16) {
	prog := c.newProg()
	prog.As = instruction
	prog.From.Type = obj.TYPE_MEM
	prog.From.Reg = reservedRegisterForStackBase
	prog.From.Index = reservedRegisterForStackOffset
	prog.From.Scale = 1
	prog.From.Offset = offsetConst
	prog.To.Type = obj.TYPE_REG
	prog.To.Reg = destinationRegister
	c.addInstruction(prog)
}

func (c *amd64Compiler) compileRegisterToStackInstruction(instruction obj.As, sourceRegister int16) {
	prog := c.newProg()
	prog.As = instruction
	prog.From.Type = obj.TYPE_REG
	prog.From.Reg = sourceRegister
	prog.To.Type = obj.TYPE_MEM
	prog.To.Reg = reservedRegisterForStackBase
	prog.To.Index = reservedRegisterForStackOffset
	prog.To.Scale = 1
	c.addInstruction(prog)
}

// compilePush stores the register above the current top and grows the stack
// by one value.
func (c *amd64Compiler) compilePush(sourceRegister int16) {
	c.compileRegisterToStackInstruction(x86.AMOVQ, sourceRegister)
	c.compileConstToRegisterInstruction(x86.AADDQ, 8, reservedRegisterForStackOffset)
}

// compilePop shrinks the stack by one value and loads the popped value.
func (c *amd64Compiler) compilePop(destinationRegister int16) {
	c.compileConstToRegisterInstruction(x86.ASUBQ, 8, reservedRegisterForStackOffset)
	c.compileStackToRegisterInstruction(x86.AMOVQ, 0, destinationRegister)
}

func (c *amd64Compiler) compilePreamble() {
	pushBP := c.newProg()
	pushBP.As = x86.APUSHQ
	pushBP.From.Type = obj.TYPE_REG
	pushBP.From.Reg = x86.REG_BP
	c.addInstruction(pushBP)

	c.compileRegisterToRegisterInstruction(x86.AMOVQ, x86.REG_SP, x86.REG_BP)
	c.compileConstToRegisterInstruction(x86.ASUBQ, stackFrameSizeInBytes, x86.REG_SP)
	c.compileRegisterToRegisterInstruction(x86.AMOVQ, x86.REG_SP, reservedRegisterForStackBase)
	// XOR rather than a zero immediate as the stack height starts empty.
	c.compileRegisterToRegisterInstruction(x86.AXORQ, reservedRegisterForStackOffset, reservedRegisterForStackOffset)
}

func (c *amd64Compiler) compileLoadImm(o ir.LoadImm) {
	c.compileConstToRegisterInstruction(x86.AMOVQ, o.Value, resultRegister)
	c.compilePush(resultRegister)
}

func (c *amd64Compiler) compileAdd() {
	c.compilePop(secondaryRegister)
	c.compilePop(resultRegister)
	c.compileRegisterToRegisterInstruction(x86.AADDQ, secondaryRegister, resultRegister)
	c.compilePush(resultRegister)
}

func (c *amd64Compiler) compileSub() {
	c.compilePop(secondaryRegister)
	c.compilePop(resultRegister)
	c.compileRegisterToRegisterInstruction(x86.ASUBQ, secondaryRegister, resultRegister)
	c.compilePush(resultRegister)
}

func (c *amd64Compiler) compileMul() {
	c.compilePop(secondaryRegister)
	c.compilePop(resultRegister)
	c.compileRegisterToRegisterInstruction(x86.AIMULQ, secondaryRegister, resultRegister)
	c.compilePush(resultRegister)
}

func (c *amd64Compiler) compileDiv() {
	c.compilePop(secondaryRegister)
	c.compilePop(resultRegister)

	// Sign-extend the dividend into DX:AX, then the signed quotient truncated
	// toward zero lands in AX.
	cqo := c.newProg()
	cqo.As = x86.ACQO
	c.addInstruction(cqo)

	idiv := c.newProg()
	idiv.As = x86.AIDIVQ
	idiv.From.Type = obj.TYPE_REG
	idiv.From.Reg = secondaryRegister
	c.addInstruction(idiv)

	c.compilePush(resultRegister)
}

func (c *amd64Compiler) compileEpilogue() {
	// Result is the top of the evaluation stack, or zero when it is empty.
	c.compileRegisterToRegisterInstruction(x86.AXORQ, resultRegister, resultRegister)
	c.compileRegisterToRegisterInstruction(x86.ATESTQ, reservedRegisterForStackOffset, reservedRegisterForStackOffset)

	jmpIfEmpty := c.newProg()
	jmpIfEmpty.As = x86.AJEQ
	jmpIfEmpty.To.Type = obj.TYPE_BRANCH
	c.addInstruction(jmpIfEmpty)

	c.compileStackToRegisterInstruction(x86.AMOVQ, -8, resultRegister)
	c.addSetJmpOrigins(jmpIfEmpty)

	c.compileRegisterToRegisterInstruction(x86.AMOVQ, x86.REG_BP, x86.REG_SP)

	popBP := c.newProg()
	popBP.As = x86.APOPQ
	popBP.To.Type = obj.TYPE_REG
	popBP.To.Reg = x86.REG_BP
	c.addInstruction(popBP)

	ret := c.newProg()
	ret.As = obj.ARET
	c.addInstruction(ret)
}

func (c *amd64Compiler) generate() []byte {
	return c.builder.Assemble()
}
