//go:build linux || freebsd
// +build linux freebsd

package platform

const mmapFlags = 0
