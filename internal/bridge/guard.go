package bridge

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// ReleaseFunc frees a native resource
type ReleaseFunc func(p unsafe.Pointer)

// Guard holds a native pointer together with the function that releases
// it. Release runs that function at most once, whichever exit path gets
// there first.
type Guard struct {
	ptr      unsafe.Pointer
	release  ReleaseFunc
	once     sync.Once
	released atomic.Bool
}

// NewGuard takes ownership of p. A nil p yields a guard whose Release is a no-op.
func NewGuard(p unsafe.Pointer, release ReleaseFunc) *Guard {
	return &Guard{ptr: p, release: release}
}

// Ptr returns the guarded pointer, or nil once released
func (g *Guard) Ptr() unsafe.Pointer {
	if g == nil || g.released.Load() {
		return nil
	}
	return g.ptr
}

// Release frees the native resource. Later calls do nothing.
func (g *Guard) Release() error {
	if g == nil {
		return nil
	}

	g.once.Do(func() {
		if g.ptr != nil && g.release != nil {
			g.release(g.ptr)
		}
		g.released.Store(true)
	})
	return nil
}

// Released reports whether Release has run
func (g *Guard) Released() bool {
	return g != nil && g.released.Load()
}
