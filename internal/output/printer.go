package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes status lines, coloured when enabled.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter writes to out and err. Colours are dropped when NO_COLOR is set
// or TERM is dumb.
func NewPrinter(out, err io.Writer, useColors bool) *Printer {
	if _, ok := os.LookupEnv("NO_COLOR"); ok || os.Getenv("TERM") == "dumb" {
		useColors = false
	}
	return &Printer{out: out, err: err, useColors: useColors}
}

func (p *Printer) print(w io.Writer, attr color.Attribute, prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.useColors {
		c := color.New(attr)
		c.EnableColor()
		c.Fprintln(w, prefix+msg) //nolint:errcheck
		return
	}
	fmt.Fprintln(w, prefix+msg) //nolint:errcheck
}

// Info prints a neutral line.
func (p *Printer) Info(format string, args ...any) {
	p.print(p.out, color.FgCyan, "", format, args...)
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	p.print(p.out, color.FgGreen, "✓ ", format, args...)
}

// Warning prints to the error stream.
func (p *Printer) Warning(format string, args ...any) {
	p.print(p.err, color.FgYellow, "! ", format, args...)
}

// Error prints to the error stream.
func (p *Printer) Error(format string, args ...any) {
	p.print(p.err, color.FgRed, "✗ ", format, args...)
}

// Hint prints a dimmed suggestion.
func (p *Printer) Hint(format string, args ...any) {
	p.print(p.out, color.Faint, "  ", format, args...)
}

// NoResults prints the empty-search panel.
func (p *Printer) NoResults(query string) {
	p.Warning(`No cities found for "%s"`, query)
	p.Hint("Try searching for a different city name")
}
