//go:build !amd64 && !arm64
// +build !amd64,!arm64

package jit

import (
	"fmt"
	"runtime"
)

func disassemble(code []byte) (string, error) {
	return "", fmt.Errorf("%w: no disassembler for %s", ErrUnsupportedArchitecture, runtime.GOARCH)
}
