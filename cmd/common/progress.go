package common

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar renders sweep progress on the terminal. A bar created in
// silent mode discards updates. Render errors are not fatal to a run and
// are logged at debug level.
type ProgressBar struct {
	bar *progressbar.ProgressBar
	out io.Writer
	log *Logger
}

// NewProgressBar creates a bar for total steps
func NewProgressBar(total int, description string) *ProgressBar {
	if DefaultLogger.SilentMode || total <= 0 {
		return &ProgressBar{}
	}
	return newProgressBar(total, description, DefaultLogger.Writer(), DefaultLogger)
}

func newProgressBar(total int, description string, out io.Writer, log *Logger) *ProgressBar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(log.ShowColors),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &ProgressBar{bar: bar, out: out, log: log}
}

// Update matches the sweep progress callbacks
func (p *ProgressBar) Update(done, total int) {
	if p.bar == nil {
		return
	}
	if int64(total) != p.bar.GetMax64() {
		p.bar.ChangeMax(total)
	}
	if err := p.bar.Set(done); err != nil {
		p.log.Debug("Progress bar update failed: %v", err)
	}
}

// Finish completes the bar and moves to a new line
func (p *ProgressBar) Finish() {
	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		p.log.Debug("Progress bar finish failed: %v", err)
	}
	if _, err := p.out.Write([]byte("\n")); err != nil {
		p.log.Debug("Progress bar newline failed: %v", err)
	}
}
