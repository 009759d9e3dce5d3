// Package printer formats shareup command output with color.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Printer writes command output. Errors go to a separate stream.
type Printer struct {
	out    io.Writer
	errOut io.Writer
}

// New returns a printer over out and errOut. Nil writers fall back to the
// process stdout and stderr.
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{out: out, errOut: errOut}
}

// Success prints a green line with a check mark.
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Info prints an uncolored line.
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

// Step prints a cyan progress line.
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a yellow line.
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.out, "! %s\n", fmt.Sprintf(format, a...))
}

// Field prints an aligned key/value pair.
func (p *Printer) Field(key string, value any) {
	faint.Fprintf(p.out, "  %-22s", key+":")
	fmt.Fprintf(p.out, " %v\n", value)
}

// Raw prints value without decoration, for output meant to be piped.
func (p *Printer) Raw(value string) {
	fmt.Fprintln(p.out, value)
}

// Error prints a titled error with optional suggestions to the error stream
// and returns an error carrying only the title.
func (p *Printer) Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(p.errOut, "%s\n", title)
	if explanation = strings.TrimSpace(explanation); explanation != "" {
		fmt.Fprintf(p.errOut, "\n%s\n", explanation)
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(p.errOut, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(p.errOut, "\nEither:\n")
		for i, suggestion := range suggestions {
			fmt.Fprintf(p.errOut, "  %d. %s\n", i+1, suggestion)
		}
	}

	return fmt.Errorf("%s", title)
}
