package core

import (
	"fmt"
	"strings"
)

// PackageIDSeparator joins the four segments of a PackageKit package id
const PackageIDSeparator = ";"

// Segment positions inside a package id (name;version;arch;data)
const (
	IDName = iota
	IDVersion
	IDArch
	IDData
	idSegments
)

// Package is a package as reported by the backend.
// ID is authoritative; Name, Version, Arch and Data are its segments.
type Package struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Arch    string `json:"arch" yaml:"arch"`
	Data    string `json:"data" yaml:"data"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// NewPackage builds a package from caller-supplied fields
func NewPackage(id, name, version, arch, data, summary string) Package {
	return Package{
		ID:      id,
		Name:    name,
		Version: version,
		Arch:    arch,
		Data:    data,
		Summary: summary,
	}
}

// PackageFromID builds a package whose segments are derived from id
func PackageFromID(id string) (Package, error) {
	segments, err := ParsePackageID(id)
	if err != nil {
		return Package{}, err
	}
	return NewPackage(id, segments[IDName], segments[IDVersion], segments[IDArch], segments[IDData], ""), nil
}

// Equal reports whether all six fields match
func (p Package) Equal(other Package) bool {
	return p == other
}

// String renders the package the way the CLI prints it
func (p Package) String() string {
	if p.Name == "" {
		return p.ID
	}
	return fmt.Sprintf("%s-%s.%s (%s)", p.Name, p.Version, p.Arch, p.Data)
}

// ParsePackageID splits id into its four segments
func ParsePackageID(id string) ([idSegments]string, error) {
	var segments [idSegments]string

	parts := strings.Split(id, PackageIDSeparator)
	if len(parts) != idSegments {
		return segments, fmt.Errorf("invalid package id %q: expected %d segments, got %d", id, idSegments, len(parts))
	}
	if parts[IDName] == "" {
		return segments, fmt.Errorf("invalid package id %q: empty name", id)
	}

	copy(segments[:], parts)
	return segments, nil
}

// JoinPackageID composes a package id from its segments
func JoinPackageID(name, version, arch, data string) string {
	return strings.Join([]string{name, version, arch, data}, PackageIDSeparator)
}

// IDs returns the package ids in order
func IDs(pkgs []Package) []string {
	ids := make([]string, 0, len(pkgs))
	for _, pkg := range pkgs {
		ids = append(ids, pkg.ID)
	}
	return ids
}

// Exit codes
const (
	ExitSuccess       = 0
	ExitGeneral       = 1
	ExitInvalidArgs   = 2
	ExitInstallFailed = 3
	ExitBackend       = 4
	ExitDatabase      = 5
	ExitInterrupted   = 130
)
