//go:build darwin && !cgo

// Shared utilities for purego-based framework bindings.

package hwvideo

import "unsafe"

// goStringFromPtr converts a C string pointer to a Go string.
// Used for CGLErrorString and glGetString results.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	// Find string length
	p := unsafe.Pointer(ptr)
	var length int
	for {
		if *(*byte)(unsafe.Pointer(uintptr(p) + uintptr(length))) == 0 {
			break
		}
		length++
		if length > 1024 { // Safety limit
			break
		}
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}
