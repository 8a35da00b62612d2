// Package native defines the contract with the PackageKit client library
// and provides its cgo binding.
//
// The cgo binding is compiled only with the packagekit build tag
// (go build -tags packagekit) because it links against packagekit-glib2.
// Without the tag Open reports ErrUnavailable.
package native

import (
	"context"
	"errors"
	"unsafe"

	"github.com/quantmind-br/pkgkit/internal/bridge"
	"github.com/quantmind-br/pkgkit/internal/core"
)

// ErrUnavailable is returned by Open when PackageKit cannot be reached
var ErrUnavailable = errors.New("packagekit unavailable")

// Opaque native handles
type (
	Task      unsafe.Pointer // PkTask*, released with ObjectUnref
	Results   unsafe.Pointer // PkResults*, released with ObjectUnref
	ErrorCode unsafe.Pointer // PkError*, released with ObjectUnref
	PtrArray  unsafe.Pointer // GPtrArray* of PkPackage*, released with PtrArrayUnref
)

// Library is the subset of packagekit-glib2 the client needs.
//
// Text returned as unsafe.Pointer is borrowed unless stated otherwise.
// Handles documented as released with some function are owned by the caller.
type Library interface {
	bridge.Allocator
	bridge.RecordAccessor

	// BackendName reports the daemon backend, e.g. "apt" or "dnf"
	BackendName() string

	// NewTask creates a task for one transaction
	NewTask() Task

	// FilterBitfield parses a ";"-separated filter list
	FilterBitfield(filters unsafe.Pointer) uint64

	// ResolveSync resolves names (a gchar**) with the filter bitfield.
	// It returns nil results and an error when the call itself fails.
	ResolveSync(ctx context.Context, task Task, filters uint64, names unsafe.Pointer, progress core.ProgressFunc) (Results, error)

	// InstallPackagesSync installs ids (a gchar** of package ids)
	InstallPackagesSync(ctx context.Context, task Task, ids unsafe.Pointer, progress core.ProgressFunc) (Results, error)

	// ResultsErrorCode returns the transaction error, or nil on success
	ResultsErrorCode(results Results) ErrorCode

	// ErrorGetCode returns the PkErrorEnum value of code
	ErrorGetCode(code ErrorCode) int

	// ErrorGetDetails returns the backend's free-form error details
	ErrorGetDetails(code ErrorCode) unsafe.Pointer

	// ErrorEnumToString renders a PkErrorEnum value (static text)
	ErrorEnumToString(code int) unsafe.Pointer

	// ResultsPackageArray returns the packages in results
	ResultsPackageArray(results Results) PtrArray

	// PtrArrayData returns the element vector and length of arr
	PtrArrayData(arr PtrArray) (unsafe.Pointer, int)

	// PtrArrayUnref releases arr
	PtrArrayUnref(arr PtrArray)

	// ObjectUnref releases a GObject handle
	ObjectUnref(obj unsafe.Pointer)

	// Close releases the connection to the daemon
	Close() error
}

// CallError describes a failed synchronous call (a GError), as opposed
// to a transaction that ran and reported an error code
type CallError struct {
	Domain  string
	Code    int
	Message string
}

func (e *CallError) Error() string {
	return e.Message
}
