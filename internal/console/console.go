// Package console prints user-facing status lines for task outcomes.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// Printer writes styled lines to Out. Plain disables styling.
type Printer struct {
	Out   io.Writer
	Plain bool
}

func (p Printer) Success(format string, args ...any) {
	p.line(successStyle, format, args...)
}

func (p Printer) Failure(format string, args ...any) {
	p.line(failureStyle, format, args...)
}

func (p Printer) Note(format string, args ...any) {
	p.line(mutedStyle, format, args...)
}

// Raw writes text without styling or trailing newline handling.
func (p Printer) Raw(text string) {
	fmt.Fprint(p.writer(), text)
}

func (p Printer) line(style lipgloss.Style, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !p.Plain {
		msg = style.Render(msg)
	}
	fmt.Fprintln(p.writer(), msg)
}

func (p Printer) writer() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}
