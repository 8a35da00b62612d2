package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quantmind-br/pkgkit/internal/core"
)

var (
	// ValidPackageNameRegex allows the characters distributions use in
	// package names: alphanumerics, dot, dash, underscore, plus and the
	// multiarch colon (libc6:i386)
	ValidPackageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+:-]*$`)

	// ValidVersionRegex allows standard version formats including epochs
	// and tildes (1:2.3~rc1-4)
	ValidVersionRegex = regexp.MustCompile(`^[a-zA-Z0-9._+:~-]+$`)

	// ValidDataRegex allows repository and origin names (installed:debian-stable)
	ValidDataRegex = regexp.MustCompile(`^[a-zA-Z0-9._+:@/-]*$`)
)

// ValidatePackageName validates a package name typed by the user
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name cannot be empty")
	}

	if len(name) > 255 {
		return fmt.Errorf("package name too long (max 255 characters)")
	}

	if strings.Contains(name, "\x00") {
		return fmt.Errorf("invalid package name: contains null byte")
	}

	if !ValidPackageNameRegex.MatchString(name) {
		return fmt.Errorf("invalid package name %q: must start with a letter or digit and contain only alphanumeric, dot, dash, underscore, plus or colon characters", name)
	}

	return nil
}

// ValidateVersion validates a version string
func ValidateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("invalid version: version cannot be empty")
	}

	if len(version) >= 100 {
		return fmt.Errorf("version string too long (max 100 characters)")
	}

	if !ValidVersionRegex.MatchString(version) {
		return fmt.Errorf("invalid version format %q", version)
	}

	return nil
}

// ValidatePackageID validates a full package id (name;version;arch;data)
func ValidatePackageID(id string) error {
	segments, err := core.ParsePackageID(id)
	if err != nil {
		return err
	}

	if err := ValidatePackageName(segments[core.IDName]); err != nil {
		return fmt.Errorf("package id %q: %w", id, err)
	}

	// Version and arch may be empty in ids built by hand
	if v := segments[core.IDVersion]; v != "" {
		if err := ValidateVersion(v); err != nil {
			return fmt.Errorf("package id %q: %w", id, err)
		}
	}
	if a := segments[core.IDArch]; a != "" && !ValidPackageNameRegex.MatchString(a) {
		return fmt.Errorf("package id %q: invalid arch %q", id, a)
	}
	if !ValidDataRegex.MatchString(segments[core.IDData]) {
		return fmt.Errorf("package id %q: invalid data %q", id, segments[core.IDData])
	}

	return nil
}
