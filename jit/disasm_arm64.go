//go:build arm64
// +build arm64

package jit

import (
	"fmt"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

func disassemble(code []byte) (string, error) {
	var b strings.Builder
	for pc := 0; pc+4 <= len(code); pc += 4 {
		inst, err := arm64asm.Decode(code[pc : pc+4])
		if err != nil {
			return "", fmt.Errorf("failed to decode instruction at offset %#x: %w", pc, err)
		}
		fmt.Fprintf(&b, "%#06x\t%s\n", pc, arm64asm.GoSyntax(inst, uint64(pc), nil, nil))
	}
	return b.String(), nil
}
