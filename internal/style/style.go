// Package style renders user-facing progress lines.
//
// Colors and symbols are only applied when the writer is a terminal, so
// piped output and test buffers stay plain.
package style

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Symbols for output
const (
	successSymbol = "✓"
	warnSymbol    = "!"
	errorSymbol   = "✗"
	infoSymbol    = "•"
	skipSymbol    = "-"
)

// Printer writes styled status lines.
type Printer struct {
	w     io.Writer
	color bool
	quiet bool
}

// NewPrinter creates a printer for w. Color is enabled when w is a terminal.
func NewPrinter(w io.Writer, quiet bool) *Printer {
	return &Printer{w: w, color: IsTerminal(w), quiet: quiet}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

func (p *Printer) line(symbol string, st *pterm.Style, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if p.color {
		symbol = st.Sprint(symbol)
	}
	_, _ = fmt.Fprintf(p.w, "  %s %s\n", symbol, msg)
}

// Header prints a section header followed by a blank line separator.
func (p *Printer) Header(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if p.color {
		msg = pterm.Bold.Sprint(msg)
	}
	_, _ = fmt.Fprintf(p.w, "\n%s\n", msg)
}

// Success prints a success line.
func (p *Printer) Success(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.line(successSymbol, pterm.NewStyle(pterm.FgGreen), format, args...)
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.line(infoSymbol, pterm.NewStyle(pterm.FgCyan), format, args...)
}

// Skip prints a line for something intentionally left untouched.
func (p *Printer) Skip(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.line(skipSymbol, pterm.NewStyle(pterm.FgGray), format, args...)
}

// Warn prints a warning line. Warnings are shown even in quiet mode.
func (p *Printer) Warn(format string, args ...interface{}) {
	p.line(warnSymbol, pterm.NewStyle(pterm.FgYellow), format, args...)
}

// Error prints an error line. Errors are shown even in quiet mode.
func (p *Printer) Error(format string, args ...interface{}) {
	p.line(errorSymbol, pterm.NewStyle(pterm.FgRed, pterm.Bold), format, args...)
}

// Plain prints an unstyled line.
func (p *Printer) Plain(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// Box prints lines inside a rounded border with a title.
func (p *Printer) Box(title string, lines []string) {
	if p.quiet {
		return
	}
	body := title + "\n" + strings.Join(lines, "\n")
	if !p.color {
		_, _ = fmt.Fprintf(p.w, "\n%s\n", body)
		return
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1)
	_, _ = fmt.Fprintf(p.w, "\n%s\n", box.Render(body))
}

// Check returns a yes/no marker for plan listings.
func Check(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
