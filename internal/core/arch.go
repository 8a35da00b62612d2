package core

import (
	"runtime"
	"strings"
)

// archAliases maps distribution spellings onto Go's GOARCH names
var archAliases = map[string]string{
	"x86_64":  "amd64",
	"amd64":   "amd64",
	"aarch64": "arm64",
	"arm64":   "arm64",
	"i386":    "386",
	"i486":    "386",
	"i586":    "386",
	"i686":    "386",
	"386":     "386",
	"armhf":   "arm",
	"armv7hl": "arm",
	"arm":     "arm",
	"ppc64le": "ppc64le",
	"ppc64el": "ppc64le",
	"s390x":   "s390x",
	"riscv64": "riscv64",
}

// NormalizeArch maps a distribution architecture onto its GOARCH name
func NormalizeArch(arch string) string {
	a := strings.ToLower(strings.TrimSpace(arch))
	if norm, ok := archAliases[a]; ok {
		return norm
	}
	return a
}

// IsArchIndependent reports whether arch marks a package usable on any machine
func IsArchIndependent(arch string) bool {
	switch strings.ToLower(arch) {
	case "noarch", "all", "any":
		return true
	}
	return false
}

// MatchArch reports whether a package built for pkgArch runs on want
func MatchArch(pkgArch, want string) bool {
	if IsArchIndependent(pkgArch) {
		return true
	}
	return NormalizeArch(pkgArch) == NormalizeArch(want)
}

// HostArch returns the architecture of the running binary
func HostArch() string {
	return runtime.GOARCH
}

// FilterByArch keeps packages that run on arch, preserving order
func FilterByArch(pkgs []Package, arch string) []Package {
	matched := make([]Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		if MatchArch(pkg.Arch, arch) {
			matched = append(matched, pkg)
		}
	}
	return matched
}
