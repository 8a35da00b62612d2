package ui

import (
	"bytes"
	"testing"

	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewTransactionProgress(&buf, true)

	p.Start("Installing w3m")
	update := p.Func()
	require.NotNil(t, update)
	update(core.Progress{Percentage: 0, Status: "setup"})
	update(core.Progress{Percentage: 40, Status: "download-packages"})
	update(core.Progress{Percentage: 101, Status: "install"})
	update(core.Progress{Percentage: 100, Status: "finished"})

	require.NoError(t, p.Finish())
	assert.Equal(t, "finished", p.Status())
	assert.Contains(t, buf.String(), "Installing w3m")
}

func TestTransactionProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewTransactionProgress(&buf, false)

	assert.Nil(t, p.Func())

	p.Start("Resolving w3m")
	p.Update(core.Progress{Percentage: 50, Status: "query"})

	assert.NoError(t, p.Finish())
	assert.Empty(t, buf.String())
}

func TestTransactionProgress_UpdateBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	p := NewTransactionProgress(&buf, true)

	// No bar yet: nothing to draw and nothing to panic on
	p.Update(core.Progress{Percentage: 10, Status: "setup"})
	assert.NoError(t, p.Finish())
	assert.Empty(t, buf.String())
}

func TestTransactionProgress_RestartFinishesPrevious(t *testing.T) {
	var buf bytes.Buffer
	p := NewTransactionProgress(&buf, true)

	p.Start("Resolving w3m")
	p.Update(core.Progress{Percentage: 100, Status: "finished"})
	p.Start("Resolving vim")
	assert.Empty(t, p.Status())

	require.NoError(t, p.Finish())
	out := buf.String()
	assert.Contains(t, out, "Resolving w3m")
	assert.Contains(t, out, "Resolving vim")
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "download repository", statusLabel("download-repository"))
	assert.Equal(t, "query", statusLabel("query"))
}
