// Package platform abstracts the host virtual-memory calls needed for the
// executable-memory lifecycle: allocate a writable region, commit it as
// read+execute, release it. The allocator is stateless; callers own region
// lifetimes.
//
// Note: this stays on syscall rather than x/sys to keep the module
// dependency-free at the memory layer.
package platform

import "errors"

var (
	ErrAllocationFailed = errors.New("code segment allocation failed")
	ErrProtectionFailed = errors.New("code segment protection change failed")
)

// MmapCodeSegment returns a page-aligned anonymous private mapping of at
// least size bytes, readable and writable but not executable.
func MmapCodeSegment(size int) ([]byte, error) {
	if size == 0 {
		panic(errors.New("BUG: MmapCodeSegment with zero length"))
	}
	return mmapCodeSegment(size)
}

// MprotectRX transitions the mapping to read+execute, removing write. The
// transition must happen-before any call into the region; on arm64 the
// kernel's protection change also synchronizes the instruction cache over the
// range. Idempotent for already-executable regions.
func MprotectRX(code []byte) error {
	if len(code) == 0 {
		panic(errors.New("BUG: MprotectRX with zero length"))
	}
	return mprotectRX(code)
}

// MunmapCodeSegment releases the mapping. A nil region is a no-op.
func MunmapCodeSegment(code []byte) error {
	if code == nil {
		return nil
	}
	return munmapCodeSegment(code)
}
