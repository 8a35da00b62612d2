package native

import (
	"context"
	"strings"
	"sync"
	"unsafe"

	"github.com/quantmind-br/pkgkit/internal/bridge"
	"github.com/quantmind-br/pkgkit/internal/core"
)

// PkErrorEnum values used by tests
const (
	MockErrorUnknown                 = 0
	MockErrorNoNetwork               = 2
	MockErrorInternal                = 4
	MockErrorPackageIDInvalid        = 6
	MockErrorPackageNotFound         = 8
	MockErrorPackageAlreadyInstalled = 9
	MockErrorDepResolutionFailed     = 13
	MockErrorTransactionCancelled    = 17
	MockErrorCannotGetLock           = 26
)

var mockErrorNames = map[int]string{
	MockErrorUnknown:                 "unknown",
	MockErrorNoNetwork:               "no-network",
	MockErrorInternal:                "internal-error",
	MockErrorPackageIDInvalid:        "package-id-invalid",
	MockErrorPackageNotFound:         "package-not-found",
	MockErrorPackageAlreadyInstalled: "package-already-installed",
	MockErrorDepResolutionFailed:     "dep-resolution-failed",
	MockErrorTransactionCancelled:    "transaction-cancelled",
	MockErrorCannotGetLock:           "cannot-get-lock",
}

// mockFilterBits mirrors PkFilterEnum positions
var mockFilterBits = map[string]uint{
	"none":         1,
	"installed":    2,
	"~installed":   3,
	"devel":        4,
	"~devel":       5,
	"gui":          6,
	"~gui":         7,
	"free":         8,
	"~free":        9,
	"visible":      10,
	"~visible":     11,
	"supported":    12,
	"~supported":   13,
	"basename":     14,
	"~basename":    15,
	"newest":       16,
	"~newest":      17,
	"arch":         18,
	"~arch":        19,
	"source":       20,
	"~source":      21,
	"collections":  22,
	"~collections": 23,
	"application":  24,
	"~application": 25,
	"downloaded":   26,
	"~downloaded":  27,
}

// MockPackage is a package record a mock transaction reports
type MockPackage struct {
	ID      string
	Summary string
}

// MockResults scripts the outcome of one mock transaction
type MockResults struct {
	ErrorCode int
	// Failed reports an error even when ErrorCode is zero, as a backend
	// does with PK_ERROR_ENUM_UNKNOWN
	Failed       bool
	ErrorDetails string
	Packages     []MockPackage
}

// MockCall records one synchronous call
type MockCall struct {
	Filters uint64
	Args    []string
}

// MockLibrary is an in-process Library for tests. Package records and
// strings live on the embedded MockHeap; GObject handles are tracked so
// tests can assert that every handle was released exactly once.
type MockLibrary struct {
	*bridge.MockHeap

	Backend string

	// ResolveFunc scripts ResolveSync; nil reports no packages
	ResolveFunc func(ctx context.Context, filters uint64, names []string) (*MockResults, error)

	// InstallFunc scripts InstallPackagesSync; nil reports success
	InstallFunc func(ctx context.Context, ids []string) (*MockResults, error)

	// ProgressSteps are reported to the progress callback of every call
	ProgressSteps []core.Progress

	mu        sync.Mutex
	resolves  []MockCall
	installs  []MockCall
	objects   map[unsafe.Pointer]string
	badUnrefs int
	closed    bool
	enumText  map[int]unsafe.Pointer
}

type mockObject struct {
	kind    string
	results *MockResults
	code    int
	details unsafe.Pointer
	data    unsafe.Pointer
	n       int
}

// NewMockLibrary creates a mock with its own heap
func NewMockLibrary() *MockLibrary {
	return &MockLibrary{
		MockHeap: bridge.NewMockHeap(),
		Backend:  "mock",
		objects:  make(map[unsafe.Pointer]string),
		enumText: make(map[int]unsafe.Pointer),
	}
}

// MockFilterNames decodes a bitfield produced by the mock back into names
func MockFilterNames(bits uint64) []string {
	var names []string
	for name, bit := range mockFilterBits {
		if bits&(1<<bit) != 0 {
			names = append(names, name)
		}
	}
	return names
}

func (m *MockLibrary) track(obj *mockObject) unsafe.Pointer {
	p := unsafe.Pointer(obj)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[p] = obj.kind
	return p
}

func (m *MockLibrary) newResults(res *MockResults) Results {
	if res == nil {
		res = &MockResults{}
	}
	return Results(m.track(&mockObject{kind: "results", results: res}))
}

func (m *MockLibrary) emitProgress(progress core.ProgressFunc) {
	if progress == nil {
		return
	}
	for _, step := range m.ProgressSteps {
		progress(step)
	}
}

// BackendName implements Library.BackendName
func (m *MockLibrary) BackendName() string {
	return m.Backend
}

// NewTask implements Library.NewTask
func (m *MockLibrary) NewTask() Task {
	return Task(m.track(&mockObject{kind: "task"}))
}

// FilterBitfield implements Library.FilterBitfield
func (m *MockLibrary) FilterBitfield(filters unsafe.Pointer) uint64 {
	var bits uint64
	for _, name := range strings.Split(bridge.DecodeText(filters), ";") {
		if bit, ok := mockFilterBits[name]; ok {
			bits |= 1 << bit
		}
	}
	return bits
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &CallError{Domain: "g-io-error-quark", Code: 19, Message: "Operation was cancelled"}
	}
	return nil
}

// ResolveSync implements Library.ResolveSync
func (m *MockLibrary) ResolveSync(ctx context.Context, task Task, filters uint64, names unsafe.Pointer, progress core.ProgressFunc) (Results, error) {
	args := bridge.DecodeStrv(names)
	m.mu.Lock()
	m.resolves = append(m.resolves, MockCall{Filters: filters, Args: args})
	m.mu.Unlock()

	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	m.emitProgress(progress)

	if m.ResolveFunc == nil {
		return m.newResults(nil), nil
	}
	res, err := m.ResolveFunc(ctx, filters, args)
	if err != nil {
		return nil, err
	}
	return m.newResults(res), nil
}

// InstallPackagesSync implements Library.InstallPackagesSync
func (m *MockLibrary) InstallPackagesSync(ctx context.Context, task Task, ids unsafe.Pointer, progress core.ProgressFunc) (Results, error) {
	args := bridge.DecodeStrv(ids)
	m.mu.Lock()
	m.installs = append(m.installs, MockCall{Args: args})
	m.mu.Unlock()

	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	m.emitProgress(progress)

	if m.InstallFunc == nil {
		return m.newResults(nil), nil
	}
	res, err := m.InstallFunc(ctx, args)
	if err != nil {
		return nil, err
	}
	return m.newResults(res), nil
}

// ResultsErrorCode implements Library.ResultsErrorCode
func (m *MockLibrary) ResultsErrorCode(results Results) ErrorCode {
	res := (*mockObject)(unsafe.Pointer(results)).results
	if res.ErrorCode == 0 && !res.Failed {
		return nil
	}
	return ErrorCode(m.track(&mockObject{
		kind:    "error",
		code:    res.ErrorCode,
		details: m.CString(res.ErrorDetails),
	}))
}

// ErrorGetCode implements Library.ErrorGetCode
func (m *MockLibrary) ErrorGetCode(code ErrorCode) int {
	return (*mockObject)(unsafe.Pointer(code)).code
}

// ErrorGetDetails implements Library.ErrorGetDetails
func (m *MockLibrary) ErrorGetDetails(code ErrorCode) unsafe.Pointer {
	return (*mockObject)(unsafe.Pointer(code)).details
}

// ErrorEnumToString implements Library.ErrorEnumToString. The text is
// static: allocated once per code and never freed.
func (m *MockLibrary) ErrorEnumToString(code int) unsafe.Pointer {
	m.mu.Lock()
	p, ok := m.enumText[code]
	m.mu.Unlock()
	if ok {
		return p
	}

	name, known := mockErrorNames[code]
	if !known {
		name = mockErrorNames[MockErrorUnknown]
	}
	p = m.CString(name)

	m.mu.Lock()
	m.enumText[code] = p
	m.mu.Unlock()
	return p
}

// ResultsPackageArray implements Library.ResultsPackageArray
func (m *MockLibrary) ResultsPackageArray(results Results) PtrArray {
	res := (*mockObject)(unsafe.Pointer(results)).results

	handles := make([]unsafe.Pointer, 0, len(res.Packages))
	for _, pkg := range res.Packages {
		handles = append(handles, m.NewRecord(pkg.ID, pkg.Summary))
	}
	data, n := m.Array(handles...)

	return PtrArray(m.track(&mockObject{kind: "array", data: data, n: n}))
}

// PtrArrayData implements Library.PtrArrayData
func (m *MockLibrary) PtrArrayData(arr PtrArray) (unsafe.Pointer, int) {
	if arr == nil {
		return nil, 0
	}
	obj := (*mockObject)(unsafe.Pointer(arr))
	return obj.data, obj.n
}

// PtrArrayUnref implements Library.PtrArrayUnref
func (m *MockLibrary) PtrArrayUnref(arr PtrArray) {
	m.release(unsafe.Pointer(arr), "array")
}

// ObjectUnref implements Library.ObjectUnref
func (m *MockLibrary) ObjectUnref(obj unsafe.Pointer) {
	m.release(obj, "")
}

func (m *MockLibrary) release(p unsafe.Pointer, wantKind string) {
	m.mu.Lock()
	kind, ok := m.objects[p]
	if !ok || (wantKind != "" && kind != wantKind) || (wantKind == "" && kind == "array") {
		m.badUnrefs++
		m.mu.Unlock()
		return
	}
	delete(m.objects, p)
	m.mu.Unlock()

	obj := (*mockObject)(p)
	if obj.details != nil {
		m.Free(obj.details)
	}
	if obj.data != nil {
		m.Free(obj.data)
	}
}

// Close implements Library.Close
func (m *MockLibrary) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close ran
func (m *MockLibrary) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Resolves returns the recorded ResolveSync calls
func (m *MockLibrary) Resolves() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.resolves...)
}

// Installs returns the recorded InstallPackagesSync calls
func (m *MockLibrary) Installs() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.installs...)
}

// LiveObjects returns the kinds of handles not yet released
func (m *MockLibrary) LiveObjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, 0, len(m.objects))
	for _, kind := range m.objects {
		kinds = append(kinds, kind)
	}
	return kinds
}

// BadUnrefs counts releases of unknown, already released or mistyped handles
func (m *MockLibrary) BadUnrefs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.badUnrefs
}
