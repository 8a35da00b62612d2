package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/quantmind-br/pkgkit/internal/core"
	"github.com/schollz/progressbar/v3"
)

// TransactionProgress renders PackageKit progress reports as a progress
// bar. One instance is shared by every transaction of a command; Start
// begins a new bar and Finish completes it.
type TransactionProgress struct {
	mu          sync.Mutex
	out         io.Writer
	enabled     bool
	bar         *progressbar.ProgressBar
	description string
	status      string
}

// NewTransactionProgress creates a progress sink writing to out. A
// disabled sink accepts updates and draws nothing.
func NewTransactionProgress(out io.Writer, enabled bool) *TransactionProgress {
	return &TransactionProgress{out: out, enabled: enabled}
}

// Start begins a new bar for one transaction
func (p *TransactionProgress) Start(description string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
	}
	p.description = description
	p.status = ""
	if !p.enabled {
		p.bar = nil
		return
	}

	out := p.out
	p.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(15),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update applies one progress report. Percentages outside 0..100 mean
// the backend does not know; only the status is shown then.
func (p *TransactionProgress) Update(progress core.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}

	if progress.Status != "" && progress.Status != p.status {
		p.status = progress.Status
		p.bar.Describe(fmt.Sprintf("%s (%s)", p.description, statusLabel(progress.Status)))
	}
	if progress.Percentage >= 0 && progress.Percentage <= 100 {
		_ = p.bar.Set(progress.Percentage)
	}
}

// Func returns Update as a core.ProgressFunc, or nil when the sink is
// disabled so no callback is installed on the transaction
func (p *TransactionProgress) Func() core.ProgressFunc {
	if !p.enabled {
		return nil
	}
	return p.Update
}

// Finish completes the current bar, if any
func (p *TransactionProgress) Finish() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return nil
	}
	bar := p.bar
	p.bar = nil
	return bar.Finish()
}

// Status returns the last status reported
func (p *TransactionProgress) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// statusLabel turns a PackageKit status name (download-repository) into
// display text (download repository)
func statusLabel(status string) string {
	return strings.ReplaceAll(status, "-", " ")
}
