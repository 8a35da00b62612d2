package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		input    string
		expected Filter
		wantErr  bool
	}{
		{"~installed", FilterNotInstalled, false},
		{"not-installed", FilterNotInstalled, false},
		{"Installed", FilterInstalled, false},
		{" newest ", FilterNewest, false},
		{"not-arch", FilterNotArch, false},
		{"none", FilterNone, false},
		{"not-newest", FilterNotNewest, false},
		{"~basename", FilterNotBasename, false},
		{"~application", FilterNotApplication, false},
		{"visible", FilterVisible, false},
		{"supported", FilterSupported, false},
		{"downloaded", FilterDownloaded, false},
		{"not-collections", FilterNotCollections, false},
		{"bogus", "", true},
		{"not-bogus", "", true},
		{"~~installed", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFilter(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestParseFilters(t *testing.T) {
	filters, err := ParseFilters([]string{"not-installed", "arch"})
	require.NoError(t, err)
	assert.Equal(t, []Filter{FilterNotInstalled, FilterArch}, filters)

	_, err = ParseFilters([]string{"arch", "nope"})
	assert.Error(t, err)
}

func TestJoinFilters(t *testing.T) {
	assert.Equal(t, "none", JoinFilters(nil))
	assert.Equal(t, "~installed", JoinFilters([]Filter{FilterNotInstalled}))
	assert.Equal(t, "~installed;arch;newest", JoinFilters([]Filter{FilterNotInstalled, FilterArch, FilterNewest}))
}
