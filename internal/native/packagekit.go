//go:build cgo && packagekit

package native

/*
#cgo pkg-config: packagekit-glib2
#include "pkgkit.h"
*/
import "C"

import (
	"context"
	"fmt"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/quantmind-br/pkgkit/internal/bridge"
	"github.com/quantmind-br/pkgkit/internal/core"
)

// PackageKit binds Library to packagekit-glib2
type PackageKit struct {
	control   *C.PkControl
	closeOnce sync.Once
}

// Open connects to the PackageKit daemon
func Open() (Library, error) {
	control := C.pk_control_new()

	var gerr *C.GError
	if C.pk_control_get_properties(control, nil, &gerr) == C.FALSE {
		err := takeGError(gerr)
		C.g_object_unref(C.gpointer(unsafe.Pointer(control)))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &PackageKit{control: control}, nil
}

func takeGError(gerr *C.GError) error {
	if gerr == nil {
		return &CallError{Message: "unknown error"}
	}
	defer C.g_error_free(gerr)

	return &CallError{
		Domain:  bridge.DecodeText(unsafe.Pointer(C.g_quark_to_string(gerr.domain))),
		Code:    int(gerr.code),
		Message: bridge.DecodeText(unsafe.Pointer(gerr.message)),
	}
}

// call runs one synchronous PackageKit call. Cancelling ctx cancels the
// call through a GCancellable; progress is routed through a cgo.Handle.
func (pk *PackageKit) call(ctx context.Context, progress core.ProgressFunc, fn func(*C.GCancellable, C.uintptr_t, **C.GError)) error {
	if err := ctx.Err(); err != nil {
		return &CallError{Message: err.Error()}
	}

	cancellable := C.g_cancellable_new()
	defer C.g_object_unref(C.gpointer(unsafe.Pointer(cancellable)))

	var handle C.uintptr_t
	if progress != nil {
		h := cgo.NewHandle(progress)
		defer h.Delete()
		handle = C.uintptr_t(h)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			C.g_cancellable_cancel(cancellable)
		case <-stop:
		}
	}()

	var gerr *C.GError
	fn(cancellable, handle, &gerr)

	close(stop)
	wg.Wait()

	if gerr != nil {
		return takeGError(gerr)
	}
	return nil
}

//export pkgkitProgress
func pkgkitProgress(progress *C.PkProgress, kind C.int, handle C.uintptr_t) {
	switch C.PkProgressType(kind) {
	case C.PK_PROGRESS_TYPE_PERCENTAGE, C.PK_PROGRESS_TYPE_STATUS:
	default:
		return
	}

	fn, ok := cgo.Handle(handle).Value().(core.ProgressFunc)
	if !ok || fn == nil {
		return
	}

	status := C.pk_progress_get_status(progress)
	fn(core.Progress{
		Percentage: int(C.pk_progress_get_percentage(progress)),
		Status:     bridge.DecodeText(unsafe.Pointer(C.pk_status_enum_to_string(status))),
	})
}

// BackendName implements Library.BackendName
func (pk *PackageKit) BackendName() string {
	return bridge.TakeText(pk, unsafe.Pointer(C.pkgkit_backend_name(pk.control)))
}

// NewTask implements Library.NewTask
func (pk *PackageKit) NewTask() Task {
	return Task(unsafe.Pointer(C.pk_task_new()))
}

// FilterBitfield implements Library.FilterBitfield
func (pk *PackageKit) FilterBitfield(filters unsafe.Pointer) uint64 {
	return uint64(C.pk_filter_bitfield_from_string((*C.gchar)(filters)))
}

// ResolveSync implements Library.ResolveSync
func (pk *PackageKit) ResolveSync(ctx context.Context, task Task, filters uint64, names unsafe.Pointer, progress core.ProgressFunc) (Results, error) {
	var res *C.PkResults
	err := pk.call(ctx, progress, func(c *C.GCancellable, h C.uintptr_t, gerr **C.GError) {
		res = C.pkgkit_resolve((*C.PkTask)(unsafe.Pointer(task)), C.PkBitfield(filters), (**C.gchar)(names), c, h, gerr)
	})
	if res == nil {
		if err == nil {
			err = &CallError{Message: "resolve returned no results"}
		}
		return nil, err
	}
	return Results(unsafe.Pointer(res)), nil
}

// InstallPackagesSync implements Library.InstallPackagesSync
func (pk *PackageKit) InstallPackagesSync(ctx context.Context, task Task, ids unsafe.Pointer, progress core.ProgressFunc) (Results, error) {
	var res *C.PkResults
	err := pk.call(ctx, progress, func(c *C.GCancellable, h C.uintptr_t, gerr **C.GError) {
		res = C.pkgkit_install((*C.PkTask)(unsafe.Pointer(task)), (**C.gchar)(ids), c, h, gerr)
	})
	if res == nil {
		if err == nil {
			err = &CallError{Message: "install returned no results"}
		}
		return nil, err
	}
	return Results(unsafe.Pointer(res)), nil
}

// ResultsErrorCode implements Library.ResultsErrorCode
func (pk *PackageKit) ResultsErrorCode(results Results) ErrorCode {
	return ErrorCode(unsafe.Pointer(C.pk_results_get_error_code((*C.PkResults)(unsafe.Pointer(results)))))
}

// ErrorGetCode implements Library.ErrorGetCode
func (pk *PackageKit) ErrorGetCode(code ErrorCode) int {
	return int(C.pk_error_get_code((*C.PkError)(unsafe.Pointer(code))))
}

// ErrorGetDetails implements Library.ErrorGetDetails
func (pk *PackageKit) ErrorGetDetails(code ErrorCode) unsafe.Pointer {
	return unsafe.Pointer(C.pk_error_get_details((*C.PkError)(unsafe.Pointer(code))))
}

// ErrorEnumToString implements Library.ErrorEnumToString
func (pk *PackageKit) ErrorEnumToString(code int) unsafe.Pointer {
	return unsafe.Pointer(C.pk_error_enum_to_string(C.PkErrorEnum(code)))
}

// ResultsPackageArray implements Library.ResultsPackageArray
func (pk *PackageKit) ResultsPackageArray(results Results) PtrArray {
	return PtrArray(unsafe.Pointer(C.pk_results_get_package_array((*C.PkResults)(unsafe.Pointer(results)))))
}

// PtrArrayData implements Library.PtrArrayData
func (pk *PackageKit) PtrArrayData(arr PtrArray) (unsafe.Pointer, int) {
	if arr == nil {
		return nil, 0
	}
	a := (*C.GPtrArray)(unsafe.Pointer(arr))
	return unsafe.Pointer(a.pdata), int(a.len)
}

// PtrArrayUnref implements Library.PtrArrayUnref
func (pk *PackageKit) PtrArrayUnref(arr PtrArray) {
	C.g_ptr_array_unref((*C.GPtrArray)(unsafe.Pointer(arr)))
}

// ObjectUnref implements Library.ObjectUnref
func (pk *PackageKit) ObjectUnref(obj unsafe.Pointer) {
	C.g_object_unref(C.gpointer(obj))
}

// PackageGetID implements bridge.RecordAccessor
func (pk *PackageKit) PackageGetID(pkg unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(C.pk_package_get_id((*C.PkPackage)(pkg)))
}

// PackageGetSummary implements bridge.RecordAccessor
func (pk *PackageKit) PackageGetSummary(pkg unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(C.pk_package_get_summary((*C.PkPackage)(pkg)))
}

// PackageIDSplit implements bridge.RecordAccessor
func (pk *PackageKit) PackageIDSplit(id unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(C.pk_package_id_split((*C.gchar)(id)))
}

// Strfreev implements bridge.RecordAccessor
func (pk *PackageKit) Strfreev(strv unsafe.Pointer) {
	C.g_strfreev((**C.gchar)(strv))
}

// Malloc implements bridge.Allocator with zeroed GLib memory
func (pk *PackageKit) Malloc(size uintptr) unsafe.Pointer {
	return unsafe.Pointer(C.g_malloc0(C.gsize(size)))
}

// Free implements bridge.Allocator
func (pk *PackageKit) Free(p unsafe.Pointer) {
	C.g_free(C.gpointer(p))
}

// Close releases the daemon connection
func (pk *PackageKit) Close() error {
	pk.closeOnce.Do(func() {
		C.g_object_unref(C.gpointer(unsafe.Pointer(pk.control)))
	})
	return nil
}
