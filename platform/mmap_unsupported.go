//go:build !darwin && !linux && !freebsd
// +build !darwin,!linux,!freebsd

package platform

import (
	"fmt"
	"runtime"
)

func mmapCodeSegment(size int) ([]byte, error) {
	return nil, fmt.Errorf("%w: unsupported GOOS %s", ErrAllocationFailed, runtime.GOOS)
}

func mprotectRX(code []byte) error {
	return fmt.Errorf("%w: unsupported GOOS %s", ErrProtectionFailed, runtime.GOOS)
}

func munmapCodeSegment(code []byte) error {
	return nil
}
