//go:build !cgo || !packagekit

package native

// Open reports ErrUnavailable: this binary was built without the
// packagekit tag
func Open() (Library, error) {
	return nil, ErrUnavailable
}
