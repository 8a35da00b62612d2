package bridge

import (
	"unsafe"

	"github.com/quantmind-br/pkgkit/internal/core"
)

const idSegments = 4

// DecodeRecord copies a native package record into a core.Package.
//
// Decoding never fails: a nil record yields the zero Package, and an id
// the native splitter rejects leaves Name, Version, Arch and Data empty.
func DecodeRecord(acc RecordAccessor, pkg unsafe.Pointer) core.Package {
	if pkg == nil {
		return core.Package{}
	}

	idPtr := acc.PackageGetID(pkg)
	record := core.Package{
		ID:      DecodeText(idPtr),
		Summary: DecodeText(acc.PackageGetSummary(pkg)),
	}
	if record.ID == "" {
		return record
	}

	split := NewGuard(acc.PackageIDSplit(idPtr), acc.Strfreev)
	defer split.Release()

	segments := DecodeStrv(split.Ptr())
	if len(segments) != idSegments {
		return record
	}

	record.Name = segments[core.IDName]
	record.Version = segments[core.IDVersion]
	record.Arch = segments[core.IDArch]
	record.Data = segments[core.IDData]
	return record
}

// DecodeArray decodes the n record handles stored at data, preserving order
func DecodeArray(acc RecordAccessor, data unsafe.Pointer, n int) []core.Package {
	if data == nil || n <= 0 {
		return []core.Package{}
	}

	handles := unsafe.Slice((*unsafe.Pointer)(data), n)
	out := make([]core.Package, 0, n)
	for _, h := range handles {
		out = append(out, DecodeRecord(acc, h))
	}
	return out
}
