package bridge

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// EncodeText copies s onto the native heap as a NUL-terminated string.
// The buffer lives until the returned guard is released.
func EncodeText(a Allocator, s string) (*Guard, error) {
	b, err := unix.ByteSliceFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrEmbeddedNUL, s)
	}

	p := a.Malloc(uintptr(len(b)))
	if p == nil {
		return nil, ErrOutOfMemory
	}
	copy(unsafe.Slice((*byte)(p), len(b)), b)

	return NewGuard(p, a.Free), nil
}

// EncodeStrv builds a NULL-terminated native string vector (gchar**) from
// ss. An empty ss yields a vector holding only the terminator. Releasing
// the guard frees every element and then the vector itself.
func EncodeStrv(a Allocator, ss []string) (*Guard, error) {
	elems := make([]*Guard, 0, len(ss))
	releaseElems := func() {
		for _, g := range elems {
			_ = g.Release()
		}
	}

	for _, s := range ss {
		g, err := EncodeText(a, s)
		if err != nil {
			releaseElems()
			return nil, err
		}
		elems = append(elems, g)
	}

	vec := a.Malloc(uintptr(len(ss)+1) * ptrSize)
	if vec == nil {
		releaseElems()
		return nil, ErrOutOfMemory
	}

	slots := unsafe.Slice((*unsafe.Pointer)(vec), len(ss)+1)
	for i, g := range elems {
		slots[i] = g.Ptr()
	}
	slots[len(ss)] = nil

	return NewGuard(vec, func(p unsafe.Pointer) {
		releaseElems()
		a.Free(p)
	}), nil
}
