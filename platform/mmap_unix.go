//go:build darwin || linux || freebsd
// +build darwin linux freebsd

package platform

import (
	"fmt"
	"syscall"
)

func mmapCodeSegment(size int) ([]byte, error) {
	// Anonymous as this is not an actual file, but a memory region,
	// private as this is an in-process region. Writable only: the execute
	// bit arrives with mprotectRX after the code bytes are in place.
	b, err := syscall.Mmap(
		-1,
		0,
		size,
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_ANON|syscall.MAP_PRIVATE|mmapFlags,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocationFailed, err)
	}
	return b, nil
}

func mprotectRX(code []byte) error {
	if err := syscall.Mprotect(code, syscall.PROT_READ|syscall.PROT_EXEC); err != nil {
		return fmt.Errorf("%w: %v", ErrProtectionFailed, err)
	}
	return nil
}

func munmapCodeSegment(code []byte) error {
	return syscall.Munmap(code)
}
