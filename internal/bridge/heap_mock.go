package bridge

import (
	"strings"
	"sync"
	"unsafe"

	"github.com/quantmind-br/pkgkit/internal/core"
)

// MockHeap is an in-process stand-in for the native heap and package
// records. Blocks live in Go memory and stay reachable until freed, so
// tests can exercise the bridge without cgo. It also counts frees so leaks
// and double frees show up in assertions.
type MockHeap struct {
	mu          sync.Mutex
	blocks      map[unsafe.Pointer][]byte
	freed       map[unsafe.Pointer][]byte
	records     []*mockRecord
	mallocs     int
	frees       int
	doubleFrees int
	splits      int
	strvFrees   int
}

type mockRecord struct {
	id      unsafe.Pointer
	summary unsafe.Pointer
}

// NewMockHeap creates an empty mock heap
func NewMockHeap() *MockHeap {
	return &MockHeap{
		blocks: make(map[unsafe.Pointer][]byte),
		freed:  make(map[unsafe.Pointer][]byte),
	}
}

// Malloc implements Allocator.Malloc
func (h *MockHeap) Malloc(size uintptr) unsafe.Pointer {
	// word-align so pointer vectors stored in the block are aligned
	n := (size + ptrSize - 1) &^ (ptrSize - 1)
	if n == 0 {
		n = ptrSize
	}
	buf := make([]byte, n)
	p := unsafe.Pointer(&buf[0])

	h.mu.Lock()
	defer h.mu.Unlock()
	h.blocks[p] = buf
	h.mallocs++
	return p
}

// Free implements Allocator.Free
func (h *MockHeap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	buf, ok := h.blocks[p]
	if !ok {
		h.doubleFrees++
		return
	}
	delete(h.blocks, p)
	// keep freed blocks reachable so their address is never reused
	h.freed[p] = buf
	h.frees++
}

// Bytes places b on the heap followed by a NUL terminator. Unlike
// EncodeText it accepts any bytes, including invalid UTF-8.
func (h *MockHeap) Bytes(b []byte) unsafe.Pointer {
	p := h.Malloc(uintptr(len(b) + 1))
	copy(unsafe.Slice((*byte)(p), len(b)), b)
	return p
}

// CString places s on the heap as a NUL-terminated string
func (h *MockHeap) CString(s string) unsafe.Pointer {
	return h.Bytes([]byte(s))
}

// Strv places a NULL-terminated vector of strings on the heap
func (h *MockHeap) Strv(items ...string) unsafe.Pointer {
	vec := h.Malloc(uintptr(len(items)+1) * ptrSize)
	slots := unsafe.Slice((*unsafe.Pointer)(vec), len(items)+1)
	for i, item := range items {
		slots[i] = h.CString(item)
	}
	return vec
}

// Array places a pointer array on the heap and returns its descriptor
func (h *MockHeap) Array(ptrs ...unsafe.Pointer) (unsafe.Pointer, int) {
	if len(ptrs) == 0 {
		return nil, 0
	}
	vec := h.Malloc(uintptr(len(ptrs)) * ptrSize)
	copy(unsafe.Slice((*unsafe.Pointer)(vec), len(ptrs)), ptrs)
	return vec, len(ptrs)
}

// NewRecord creates a package record handle with the given id and summary
func (h *MockHeap) NewRecord(id, summary string) unsafe.Pointer {
	return h.NewRecordRaw(h.CString(id), h.CString(summary))
}

// NewRecordRaw creates a package record handle from raw field pointers,
// either of which may be nil
func (h *MockHeap) NewRecordRaw(id, summary unsafe.Pointer) unsafe.Pointer {
	rec := &mockRecord{id: id, summary: summary}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return unsafe.Pointer(rec)
}

// PackageGetID implements RecordAccessor.PackageGetID
func (h *MockHeap) PackageGetID(pkg unsafe.Pointer) unsafe.Pointer {
	return (*mockRecord)(pkg).id
}

// PackageGetSummary implements RecordAccessor.PackageGetSummary
func (h *MockHeap) PackageGetSummary(pkg unsafe.Pointer) unsafe.Pointer {
	return (*mockRecord)(pkg).summary
}

// PackageIDSplit implements RecordAccessor.PackageIDSplit with the same
// contract as pk_package_id_split: nil unless the id has four segments
func (h *MockHeap) PackageIDSplit(id unsafe.Pointer) unsafe.Pointer {
	h.mu.Lock()
	h.splits++
	h.mu.Unlock()

	parts := strings.Split(DecodeText(id), core.PackageIDSeparator)
	if len(parts) != idSegments || parts[core.IDName] == "" {
		return nil
	}
	return h.Strv(parts...)
}

// Strfreev implements RecordAccessor.Strfreev
func (h *MockHeap) Strfreev(strv unsafe.Pointer) {
	if strv == nil {
		return
	}
	for i := uintptr(0); ; i++ {
		elem := *(*unsafe.Pointer)(unsafe.Add(strv, i*ptrSize))
		if elem == nil {
			break
		}
		h.Free(elem)
	}
	h.Free(strv)

	h.mu.Lock()
	h.strvFrees++
	h.mu.Unlock()
}

// Live returns the number of allocated, not yet freed blocks
func (h *MockHeap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks)
}

// Frees returns the number of successful frees
func (h *MockHeap) Frees() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frees
}

// DoubleFrees returns the number of frees of unknown or already freed blocks
func (h *MockHeap) DoubleFrees() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.doubleFrees
}

// Splits returns how many times PackageIDSplit ran
func (h *MockHeap) Splits() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.splits
}

// StrvFrees returns how many vectors Strfreev released
func (h *MockHeap) StrvFrees() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.strvFrees
}
