//go:build arm64
// +build arm64

package jit

// This file implements the compiler for the arm64/AArch64 target.
// Note: multiple byte-size variants are merged by the assembler under one
// mnemonic, e.g. 64-bit ldr and str both correspond to arm64.AMOVD.
// Please refer to https://pkg.go.dev/cmd/internal/obj/arm64.

import (
	"fmt"

	asm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/arm64"

	"github.com/tinystack/jet/ir"
)

// nativecall is implemented in jitcall_arm64.s as a Go Assembler function.
// codeSegment is the address of the first instruction of the compiled code;
// the function result arrives in R0.
func nativecall(codeSegment uintptr) int64

// Register allocation is fixed. R27 is the assembler's own temporary and
// R28 holds the goroutine, so neither may be touched.
const (
	reservedRegisterForStackBase   = arm64.REG_R8
	reservedRegisterForStackOffset = arm64.REG_R9
	resultRegister                 = arm64.REG_R0
	temporaryRegister              = arm64.REG_R10
	secondaryRegister              = arm64.REG_R11
)

func newCompiler() (compiler, error) {
	b, err := asm.NewBuilder("arm64", 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	return &arm64Compiler{builder: b}, nil
}

type arm64Compiler struct {
	builder *asm.Builder
	// Branch instructions whose destination is the next instruction to be
	// created.
	setBranchTargetOnNextInstructions []*obj.Prog
}

func (c *arm64Compiler) newProg() (inst *obj.Prog) {
	inst = c.builder.NewProg()
	for _, origin := range c.setBranchTargetOnNextInstructions {
		origin.To.SetTarget(inst)
	}
	c.setBranchTargetOnNextInstructions = nil
	return
}

func (c *arm64Compiler) addInstruction(inst *obj.Prog) {
	c.builder.AddInstruction(inst)
}

func (c *arm64Compiler) setBranchTargetOnNext(progs ...*obj.Prog) {
	c.setBranchTargetOnNextInstructions = append(c.setBranchTargetOnNextInstructions, progs...)
}

// compileConstToRegisterInstruction adds an instruction where the source
// operand is a constant and the destination is a register.
// Note: in raw arm64 assembly immediates larger than 16 bits are not
// supported, but the assembler takes care of this and emits at most four
// instructions to load such large constants.
func (c *arm64Compiler) compileConstToRegisterInstruction(instruction obj.As, constValue int64, destinationRegister int16) {
	applyConst := c.newProg()
	applyConst.As = instruction
	applyConst.From.Type = obj.TYPE_CONST
	applyConst.From.Offset = constValue
	applyConst.To.Type = obj.TYPE_REG
	applyConst.To.Reg = destinationRegister
	c.addInstruction(applyConst)
}

func (c *arm64Compiler) compileRegisterToRegisterInstruction(instruction obj.As, from, to int16) {
	inst := c.newProg()
	inst.As = instruction
	inst.From.Type = obj.TYPE_REG
	inst.From.Reg = from
	inst.To.Type = obj.TYPE_REG
	inst.To.Reg = to
	c.addInstruction(inst)
}

// compileTwoRegistersToRegisterInstruction adds an instruction taking two
// register sources and one register destination, computing
// destination = src2 (instruction) src1.
func (c *arm64Compiler) compileTwoRegistersToRegisterInstruction(instruction obj.As, src1, src2, destination int16) {
	inst := c.newProg()
	inst.As = instruction
	inst.From.Type = obj.TYPE_REG
	inst.From.Reg = src1
	inst.Reg = src2
	inst.To.Type = obj.TYPE_REG
	inst.To.Reg = destination
	c.addInstruction(inst)
}

func (c *arm64Compiler) compileTwoRegistersToNoneInstruction(instruction obj.As, src1, src2 int16) {
	inst := c.newProg()
	inst.As = instruction
	// TYPE_NONE indicates that this instruction doesn't have a destination.
	inst.To.Type = obj.TYPE_NONE
	inst.From.Type = obj.TYPE_REG
	inst.From.Reg = src1
	inst.Reg = src2
	c.addInstruction(inst)
}

// compileStackToRegisterInstruction loads the value at the current
// stack-offset register position into a register.
func (c *arm64Compiler) compileStackToRegisterInstruction(destinationRegister int16) {
	inst := c.newProg()
	inst.As = arm64.AMOVD
	inst.From.Type = obj.TYPE_MEM
	inst.From.Reg = reservedRegisterForStackBase
	inst.From.Index = reservedRegisterForStackOffset
	inst.From.Scale = 1
	inst.To.Type = obj.TYPE_REG
	inst.To.Reg = destinationRegister
	c.addInstruction(inst)
}

func (c *arm64Compiler) compileRegisterToStackInstruction(sourceRegister int16) {
	inst := c.newProg()
	inst.As = arm64.AMOVD
	inst.From.Type = obj.TYPE_REG
	inst.From.Reg = sourceRegister
	inst.To.Type = obj.TYPE_MEM
	inst.To.Reg = reservedRegisterForStackBase
	inst.To.Index = reservedRegisterForStackOffset
	inst.To.Scale = 1
	c.addInstruction(inst)
}

func (c *arm64Compiler) compilePush(sourceRegister int16) {
	c.compileRegisterToStackInstruction(sourceRegister)
	c.compileConstToRegisterInstruction(arm64.AADD, 8, reservedRegisterForStackOffset)
}

func (c *arm64Compiler) compilePop(destinationRegister int16) {
	c.compileConstToRegisterInstruction(arm64.ASUB, 8, reservedRegisterForStackOffset)
	c.compileStackToRegisterInstruction(destinationRegister)
}

func (c *arm64Compiler) compilePreamble() {
	// RSP must stay 16-byte aligned whenever it is used as a base, so the
	// evaluation stack is addressed through a plain register copy of it.
	c.compileConstToRegisterInstruction(arm64.ASUB, stackFrameSizeInBytes, arm64.REGSP)
	c.compileRegisterToRegisterInstruction(arm64.AMOVD, arm64.REGSP, reservedRegisterForStackBase)
	c.compileConstToRegisterInstruction(arm64.AMOVD, 0, reservedRegisterForStackOffset)
}

func (c *arm64Compiler) compileLoadImm(o ir.LoadImm) {
	c.compileConstToRegisterInstruction(arm64.AMOVD, o.Value, temporaryRegister)
	c.compilePush(temporaryRegister)
}

func (c *arm64Compiler) compileAdd() {
	c.compilePop(secondaryRegister)
	c.compilePop(temporaryRegister)
	c.compileTwoRegistersToRegisterInstruction(arm64.AADD, secondaryRegister, temporaryRegister, temporaryRegister)
	c.compilePush(temporaryRegister)
}

func (c *arm64Compiler) compileSub() {
	c.compilePop(secondaryRegister)
	c.compilePop(temporaryRegister)
	c.compileTwoRegistersToRegisterInstruction(arm64.ASUB, secondaryRegister, temporaryRegister, temporaryRegister)
	c.compilePush(temporaryRegister)
}

func (c *arm64Compiler) compileMul() {
	c.compilePop(secondaryRegister)
	c.compilePop(temporaryRegister)
	c.compileTwoRegistersToRegisterInstruction(arm64.AMUL, secondaryRegister, temporaryRegister, temporaryRegister)
	c.compilePush(temporaryRegister)
}

func (c *arm64Compiler) compileDiv() {
	c.compilePop(secondaryRegister)
	c.compilePop(temporaryRegister)
	// SDIV truncates the signed quotient toward zero.
	c.compileTwoRegistersToRegisterInstruction(arm64.ASDIV, secondaryRegister, temporaryRegister, temporaryRegister)
	c.compilePush(temporaryRegister)
}

func (c *arm64Compiler) compileEpilogue() {
	// Result is the top of the evaluation stack, or zero when it is empty.
	c.compileConstToRegisterInstruction(arm64.AMOVD, 0, resultRegister)
	c.compileTwoRegistersToNoneInstruction(arm64.ACMP, arm64.REGZERO, reservedRegisterForStackOffset)

	brIfEmpty := c.newProg()
	brIfEmpty.As = arm64.ABEQ
	brIfEmpty.To.Type = obj.TYPE_BRANCH
	c.addInstruction(brIfEmpty)

	c.compileConstToRegisterInstruction(arm64.ASUB, 8, reservedRegisterForStackOffset)
	c.compileStackToRegisterInstruction(resultRegister)

	c.setBranchTargetOnNext(brIfEmpty)
	c.compileConstToRegisterInstruction(arm64.AADD, stackFrameSizeInBytes, arm64.REGSP)

	ret := c.newProg()
	ret.As = obj.ARET
	c.addInstruction(ret)
}

func (c *arm64Compiler) generate() []byte {
	return c.builder.Assemble()
}
