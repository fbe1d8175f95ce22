package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// Printer writes status lines, coloured when w is a terminal.
type Printer struct {
	w   io.Writer
	out *termenv.Output
}

// NewPrinter creates a Printer for w. Colour is disabled when w is not a TTY
// or NO_COLOR is set.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, out: termenv.NewOutput(w)}
}

func (p *Printer) line(symbol, color, format string, args ...any) {
	mark := p.out.String(symbol).Foreground(p.out.Color(color)).Bold()
	fmt.Fprintf(p.w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

// Success prints a green check line.
func (p *Printer) Success(format string, args ...any) {
	p.line("✔", "#22c55e", format, args...)
}

// Info prints a neutral line.
func (p *Printer) Info(format string, args ...any) {
	p.line("•", "#60a5fa", format, args...)
}

// Warn prints a yellow line.
func (p *Printer) Warn(format string, args ...any) {
	p.line("!", "#eab308", format, args...)
}

// Fail prints a red cross line.
func (p *Printer) Fail(format string, args ...any) {
	p.line("✘", "#ef4444", format, args...)
}

// Faint prints dimmed detail text, indented under the previous line.
func (p *Printer) Faint(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s\n", p.out.String(fmt.Sprintf(format, args...)).Faint())
}
