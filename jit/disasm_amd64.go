//go:build amd64
// +build amd64

package jit

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

func disassemble(code []byte) (string, error) {
	var b strings.Builder
	for pc := 0; pc < len(code); {
		inst, err := x86asm.Decode(code[pc:], 64)
		if err != nil {
			return "", fmt.Errorf("failed to decode instruction at offset %#x: %w", pc, err)
		}
		fmt.Fprintf(&b, "%#06x\t%s\n", pc, x86asm.GoSyntax(inst, uint64(pc), nil))
		pc += inst.Len
	}
	return b.String(), nil
}
