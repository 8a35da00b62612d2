package syspkg

import (
	"context"

	"github.com/quantmind-br/pkgkit/internal/core"
)

// Provider defines the interface for system package management
type Provider interface {
	// Name returns the provider name (e.g., "packagekit")
	Name() string

	// Backend returns the distribution backend behind the provider (e.g., "apt", "dnf")
	Backend() string

	// SearchPackage finds installable packages matching name
	SearchPackage(ctx context.Context, name string) ([]core.Package, error)

	// InstallPackages installs pkgs in a single transaction
	InstallPackages(ctx context.Context, pkgs []core.Package) error

	// Close releases the provider
	Close() error
}
