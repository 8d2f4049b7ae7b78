// Package printer writes service notifications and CLI messages to a
// terminal with colored prefixes.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"lostfound/pkg/domain"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer renders notifications. Success and info go to out, errors to errOut.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// New returns a printer writing to out and errOut. Coloring follows
// color.NoColor, which is set when NO_COLOR is present or stdout is not a tty.
func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{out: out, errOut: errOut}
}

// Notify implements domain.Notifier.
func (p *Printer) Notify(severity domain.NotificationSeverity, message string) {
	switch severity {
	case domain.NotifySuccess:
		p.Success("%s", message)
	case domain.NotifyError:
		p.Error("%s", message)
	default:
		p.Info("%s", message)
	}
}

// Success prints a green message with a checkmark prefix.
func (p *Printer) Success(format string, a ...any) {
	p.line(p.out, green, "✓ ", format, a...)
}

// Info prints a cyan message with an arrow prefix.
func (p *Printer) Info(format string, a ...any) {
	p.line(p.out, cyan, "→ ", format, a...)
}

// Warning prints a yellow message with a warning prefix.
func (p *Printer) Warning(format string, a ...any) {
	p.line(p.errOut, yellow, "! ", format, a...)
}

// Error prints a red message to the error writer.
func (p *Printer) Error(format string, a ...any) {
	p.line(p.errOut, red, "✗ ", format, a...)
}

// Errorf prints like Error and returns the message as an error for cobra.
func (p *Printer) Errorf(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	p.Error("%s", msg)
	return fmt.Errorf("%s", msg)
}

func (p *Printer) line(w io.Writer, c *color.Color, prefix, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, prefix) {
		msg = prefix + msg
	}
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = c.Fprint(w, msg)
}
