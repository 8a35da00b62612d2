package bridge

import (
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	heap := NewMockHeap()

	t.Run("nil pointer", func(t *testing.T) {
		assert.Equal(t, "", DecodeText(nil))
	})

	t.Run("ascii", func(t *testing.T) {
		assert.Equal(t, "w3m", DecodeText(heap.CString("w3m")))
	})

	t.Run("utf-8", func(t *testing.T) {
		assert.Equal(t, "navegador de texto – w3m", DecodeText(heap.CString("navegador de texto – w3m")))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", DecodeText(heap.CString("")))
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		assert.Equal(t, "", DecodeText(heap.Bytes([]byte{'w', 0xff, 0xfe, 'm'})))
	})

	t.Run("stops at first NUL", func(t *testing.T) {
		assert.Equal(t, "abc", DecodeText(heap.Bytes([]byte{'a', 'b', 'c', 0, 'd'})))
	})

	t.Run("borrowed buffer is not freed", func(t *testing.T) {
		p := heap.CString("keep")
		live := heap.Live()
		_ = DecodeText(p)
		assert.Equal(t, live, heap.Live())
	})

	t.Run("result does not alias native memory", func(t *testing.T) {
		p := heap.CString("alias")
		s := DecodeText(p)
		*(*byte)(p) = 'X'
		assert.Equal(t, "alias", s)
	})
}

func TestTakeText(t *testing.T) {
	heap := NewMockHeap()

	p := heap.CString("owned")
	live := heap.Live()

	assert.Equal(t, "owned", TakeText(heap, p))
	assert.Equal(t, live-1, heap.Live())
	assert.Equal(t, 0, heap.DoubleFrees())

	assert.Equal(t, "", TakeText(heap, nil))
	assert.Equal(t, 0, heap.DoubleFrees())
}

func TestDecodeStrv(t *testing.T) {
	heap := NewMockHeap()

	assert.Equal(t, []string{}, DecodeStrv(nil))
	assert.Equal(t, []string{}, DecodeStrv(heap.Strv()))
	assert.Equal(t, []string{"a", "", "c"}, DecodeStrv(heap.Strv("a", "", "c")))
}

func TestGuard(t *testing.T) {
	heap := NewMockHeap()

	t.Run("releases exactly once", func(t *testing.T) {
		p := heap.Malloc(4)
		calls := 0
		g := NewGuard(p, func(ptr unsafe.Pointer) {
			calls++
			heap.Free(ptr)
		})

		assert.Equal(t, p, g.Ptr())
		assert.False(t, g.Released())

		require.NoError(t, g.Release())
		require.NoError(t, g.Release())

		assert.Equal(t, 1, calls)
		assert.True(t, g.Released())
		assert.Nil(t, g.Ptr())
		assert.Equal(t, 0, heap.DoubleFrees())
	})

	t.Run("nil pointer is a no-op", func(t *testing.T) {
		called := false
		g := NewGuard(nil, func(unsafe.Pointer) { called = true })
		require.NoError(t, g.Release())
		assert.False(t, called)
	})

	t.Run("concurrent release and reads", func(t *testing.T) {
		p := heap.Malloc(4)
		var calls atomic.Int32
		g := NewGuard(p, func(ptr unsafe.Pointer) {
			calls.Add(1)
			heap.Free(ptr)
		})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = g.Release()
			}()
			go func() {
				defer wg.Done()
				if ptr := g.Ptr(); ptr != nil {
					assert.Equal(t, p, ptr)
				}
				_ = g.Released()
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		assert.True(t, g.Released())
		assert.Nil(t, g.Ptr())
		assert.Equal(t, 0, heap.DoubleFrees())
	})

	t.Run("nil guard", func(t *testing.T) {
		var g *Guard
		assert.Nil(t, g.Ptr())
		assert.NoError(t, g.Release())
		assert.False(t, g.Released())
	})
}

func TestEncodeText(t *testing.T) {
	heap := NewMockHeap()

	t.Run("round trip", func(t *testing.T) {
		g, err := EncodeText(heap, "w3m;0.5.3-34;amd64;installed")
		require.NoError(t, err)
		assert.Equal(t, "w3m;0.5.3-34;amd64;installed", DecodeText(g.Ptr()))

		live := heap.Live()
		require.NoError(t, g.Release())
		assert.Equal(t, live-1, heap.Live())
	})

	t.Run("empty string", func(t *testing.T) {
		g, err := EncodeText(heap, "")
		require.NoError(t, err)
		defer g.Release()
		assert.NotNil(t, g.Ptr())
		assert.Equal(t, "", DecodeText(g.Ptr()))
	})

	t.Run("embedded NUL", func(t *testing.T) {
		live := heap.Live()
		g, err := EncodeText(heap, "bad\x00id")
		assert.ErrorIs(t, err, ErrEmbeddedNUL)
		assert.Nil(t, g)
		assert.Equal(t, live, heap.Live())
	})
}

func TestEncodeStrv(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		heap := NewMockHeap()
		ids := []string{"w3m;0.5.3-34;amd64;debian", "vim;9.0;amd64;debian"}

		g, err := EncodeStrv(heap, ids)
		require.NoError(t, err)
		assert.Equal(t, ids, DecodeStrv(g.Ptr()))

		require.NoError(t, g.Release())
		assert.Equal(t, 0, heap.Live())
		assert.Equal(t, 0, heap.DoubleFrees())
	})

	t.Run("empty input yields terminator only", func(t *testing.T) {
		heap := NewMockHeap()

		g, err := EncodeStrv(heap, nil)
		require.NoError(t, err)
		require.NotNil(t, g.Ptr())
		assert.Nil(t, *(*unsafe.Pointer)(g.Ptr()))
		assert.Equal(t, []string{}, DecodeStrv(g.Ptr()))

		require.NoError(t, g.Release())
		assert.Equal(t, 0, heap.Live())
	})

	t.Run("failure frees encoded elements", func(t *testing.T) {
		heap := NewMockHeap()

		g, err := EncodeStrv(heap, []string{"ok", "bad\x00", "never"})
		assert.ErrorIs(t, err, ErrEmbeddedNUL)
		assert.Nil(t, g)
		assert.Equal(t, 0, heap.Live())
	})
}

type failingAllocator struct{}

func (failingAllocator) Malloc(uintptr) unsafe.Pointer { return nil }
func (failingAllocator) Free(unsafe.Pointer)           {}

func TestEncode_OutOfMemory(t *testing.T) {
	_, err := EncodeText(failingAllocator{}, "x")
	assert.ErrorIs(t, err, ErrOutOfMemory)

	_, err = EncodeStrv(failingAllocator{}, nil)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}
