package core

import (
	"fmt"
	"strings"
)

// Filter is a PackageKit search filter in its native spelling
type Filter string

// Recognized filters, one per PkFilterEnum value. A leading "~" negates.
const (
	FilterNone           Filter = "none"
	FilterInstalled      Filter = "installed"
	FilterNotInstalled   Filter = "~installed"
	FilterDevelopment    Filter = "devel"
	FilterNotDevelopment Filter = "~devel"
	FilterGUI            Filter = "gui"
	FilterNotGUI         Filter = "~gui"
	FilterFree           Filter = "free"
	FilterNotFree        Filter = "~free"
	FilterVisible        Filter = "visible"
	FilterNotVisible     Filter = "~visible"
	FilterSupported      Filter = "supported"
	FilterNotSupported   Filter = "~supported"
	FilterBasename       Filter = "basename"
	FilterNotBasename    Filter = "~basename"
	FilterNewest         Filter = "newest"
	FilterNotNewest      Filter = "~newest"
	FilterArch           Filter = "arch"
	FilterNotArch        Filter = "~arch"
	FilterSource         Filter = "source"
	FilterNotSource      Filter = "~source"
	FilterCollections    Filter = "collections"
	FilterNotCollections Filter = "~collections"
	FilterApplication    Filter = "application"
	FilterNotApplication Filter = "~application"
	FilterDownloaded     Filter = "downloaded"
	FilterNotDownloaded  Filter = "~downloaded"
)

// filterSeparator joins filters into the string PackageKit parses into a bitfield
const filterSeparator = ";"

var knownFilters = map[Filter]bool{
	FilterNone:           true,
	FilterInstalled:      true,
	FilterNotInstalled:   true,
	FilterDevelopment:    true,
	FilterNotDevelopment: true,
	FilterGUI:            true,
	FilterNotGUI:         true,
	FilterFree:           true,
	FilterNotFree:        true,
	FilterVisible:        true,
	FilterNotVisible:     true,
	FilterSupported:      true,
	FilterNotSupported:   true,
	FilterBasename:       true,
	FilterNotBasename:    true,
	FilterNewest:         true,
	FilterNotNewest:      true,
	FilterArch:           true,
	FilterNotArch:        true,
	FilterSource:         true,
	FilterNotSource:      true,
	FilterCollections:    true,
	FilterNotCollections: true,
	FilterApplication:    true,
	FilterNotApplication: true,
	FilterDownloaded:     true,
	FilterNotDownloaded:  true,
}

// ParseFilter accepts the native spelling ("~installed") or the
// config spelling ("not-installed")
func ParseFilter(s string) (Filter, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if rest, ok := strings.CutPrefix(name, "not-"); ok {
		name = "~" + rest
	}

	f := Filter(name)
	if !knownFilters[f] {
		return "", fmt.Errorf("unknown filter %q", s)
	}
	return f, nil
}

// ParseFilters parses every entry, failing on the first unknown one
func ParseFilters(values []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(values))
	for _, v := range values {
		f, err := ParseFilter(v)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// JoinFilters renders filters in the form PackageKit parses. An empty
// list means no filtering.
func JoinFilters(filters []Filter) string {
	if len(filters) == 0 {
		return string(FilterNone)
	}

	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		parts = append(parts, string(f))
	}
	return strings.Join(parts, filterSeparator)
}
