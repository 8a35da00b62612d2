// Package bridge converts data crossing the native boundary into owned Go
// values and back.
//
// Ownership is declared per call: Decode* functions borrow the native
// memory they read and never free it, Take* functions free it exactly once,
// and Encode* functions return a Guard the caller releases after the
// outbound call has returned.
package bridge

import (
	"errors"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	// ErrEmbeddedNUL is returned when a string cannot be represented as a C string
	ErrEmbeddedNUL = errors.New("string contains NUL byte")

	// ErrOutOfMemory is returned when the native allocator fails
	ErrOutOfMemory = errors.New("native allocation failed")
)

const ptrSize = unsafe.Sizeof(uintptr(0))

// Allocator owns the native heap used for outbound buffers
type Allocator interface {
	// Malloc returns zeroed native memory of at least size bytes, or nil
	Malloc(size uintptr) unsafe.Pointer

	// Free releases memory returned by Malloc
	Free(p unsafe.Pointer)
}

// RecordAccessor reads fields of an opaque native package record
type RecordAccessor interface {
	// PackageGetID returns the borrowed composite identifier
	PackageGetID(pkg unsafe.Pointer) unsafe.Pointer

	// PackageGetSummary returns the borrowed summary text
	PackageGetSummary(pkg unsafe.Pointer) unsafe.Pointer

	// PackageIDSplit returns an owned NULL-terminated vector of the four
	// id segments, or nil when the id is malformed
	PackageIDSplit(id unsafe.Pointer) unsafe.Pointer

	// Strfreev releases a vector returned by PackageIDSplit
	Strfreev(strv unsafe.Pointer)
}

// DecodeText copies a NUL-terminated native string. A nil pointer or
// bytes that are not valid UTF-8 decode to "". The native buffer is borrowed.
func DecodeText(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}

	s := unix.BytePtrToString((*byte)(p))
	if !utf8.ValidString(s) {
		return ""
	}
	return s
}

// TakeText decodes p like DecodeText and then frees it with a, for
// accessors that transfer ownership to the caller
func TakeText(a Allocator, p unsafe.Pointer) string {
	s := DecodeText(p)
	if p != nil {
		a.Free(p)
	}
	return s
}

// DecodeStrv copies a borrowed NULL-terminated vector of native strings
func DecodeStrv(p unsafe.Pointer) []string {
	out := []string{}
	if p == nil {
		return out
	}

	for i := uintptr(0); ; i++ {
		elem := *(*unsafe.Pointer)(unsafe.Add(p, i*ptrSize))
		if elem == nil {
			break
		}
		out = append(out, DecodeText(elem))
	}
	return out
}
