package core

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchArch(t *testing.T) {
	tests := []struct {
		pkgArch string
		want    string
		match   bool
	}{
		{"amd64", "amd64", true},
		{"x86_64", "amd64", true},
		{"amd64", "x86_64", true},
		{"aarch64", "arm64", true},
		{"i686", "386", true},
		{"noarch", "arm64", true},
		{"all", "amd64", true},
		{"i386", "amd64", false},
		{"arm64", "amd64", false},
		{"", "amd64", false},
	}

	for _, tt := range tests {
		t.Run(tt.pkgArch+"/"+tt.want, func(t *testing.T) {
			assert.Equal(t, tt.match, MatchArch(tt.pkgArch, tt.want))
		})
	}
}

func TestFilterByArch(t *testing.T) {
	pkgs := []Package{
		{ID: "w3m;0.5.3-34;amd64;debian", Arch: "amd64"},
		{ID: "w3m;0.5.3-34;i386;debian", Arch: "i386"},
		{ID: "w3m-doc;0.5.3-34;all;debian", Arch: "all"},
	}

	matched := FilterByArch(pkgs, "amd64")
	assert.Len(t, matched, 2)
	assert.Equal(t, "w3m;0.5.3-34;amd64;debian", matched[0].ID)
	assert.Equal(t, "w3m-doc;0.5.3-34;all;debian", matched[1].ID)

	assert.Empty(t, FilterByArch(nil, "amd64"))
}

func TestHostArch(t *testing.T) {
	assert.Equal(t, runtime.GOARCH, HostArch())
}
