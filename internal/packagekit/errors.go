package packagekit

import "errors"

// ErrClosed is returned by operations on a closed client
var ErrClosed = errors.New("packagekit client is closed")

// Operations reported in Error.Op
const (
	OpResolve = "resolve"
	OpInstall = "install-packages"
)

// Error is a failed PackageKit operation. Message is the backend's own
// rendering of the failure.
type Error struct {
	Op      string // operation that failed
	Code    int    // PkErrorEnum value, 0 when the call itself failed
	Message string
	Details string // backend details, may be empty
	Err     error  // underlying call error, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
