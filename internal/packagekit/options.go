package packagekit

import (
	"time"

	"github.com/quantmind-br/pkgkit/internal/core"
)

// Options configures a Client
type Options struct {
	// Filters restrict SearchPackage results; empty means no filtering
	Filters []core.Filter

	// Timeout bounds each native call; zero waits indefinitely
	Timeout time.Duration

	// Progress receives backend progress; nil disables reporting
	Progress core.ProgressFunc
}

// DefaultOptions searches packages that are not installed yet, with no
// timeout and no progress reporting
func DefaultOptions() Options {
	return Options{
		Filters: []core.Filter{core.FilterNotInstalled},
	}
}
