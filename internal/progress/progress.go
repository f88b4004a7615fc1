// Package progress reports batch liveness. Reporters are observational only.
package progress

import (
	"fmt"
	"io"
	"os"

	"pdf-compressor-go/internal/compressor"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Reporter receives one Advance per completed job.
type Reporter interface {
	Start(total int)
	Advance(o compressor.Outcome)
	Finish()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(int)                  {}
func (Nop) Advance(compressor.Outcome) {}
func (Nop) Finish()                    {}

// Bar draws a terminal progress bar.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewBar returns a Bar writing to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

// ForTerminal returns a Bar when enabled and w is a terminal, Nop otherwise.
func ForTerminal(w io.Writer, enabled bool) Reporter {
	if !enabled {
		return Nop{}
	}
	f, ok := w.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return Nop{}
	}
	return NewBar(w)
}

func (b *Bar) Start(total int) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription("Compressing PDFs"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerPadding: "-",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(b.w)
		}),
	)
}

func (b *Bar) Advance(compressor.Outcome) {
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

func (b *Bar) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// Multi fans progress out to several reporters.
type Multi []Reporter

func (m Multi) Start(total int) {
	for _, r := range m {
		r.Start(total)
	}
}

func (m Multi) Advance(o compressor.Outcome) {
	for _, r := range m {
		r.Advance(o)
	}
}

func (m Multi) Finish() {
	for _, r := range m {
		r.Finish()
	}
}
