package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()
	cmd := NewVersionCmd("1.2.3")
	assert.NotNil(t, cmd)
	assert.Equal(t, "version", cmd.Use)
	assert.Equal(t, "Show version information", cmd.Short)
	assert.NotNil(t, cmd.Run)
}

func TestVersionCmd_Output(t *testing.T) {
	testCases := []struct {
		name    string
		version string
	}{
		{"empty", ""},
		{"dev", "dev"},
		{"semantic", "1.2.3"},
		{"with_v_prefix", "v1.2.3"},
		{"prerelease", "1.0.0-rc.1"},
		{"build_metadata", "1.0.0-beta+exp.sha.5114f85"},
		{"git_describe", "1.2.3-0-gabcdef"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cmd := NewVersionCmd(tc.version)

			var buf bytes.Buffer
			cmd.SetOut(&buf)
			cmd.SetArgs([]string{})

			require.NoError(t, cmd.Execute())
			assert.Equal(t, "pkgkit version "+tc.version+"\n", buf.String())
		})
	}
}
