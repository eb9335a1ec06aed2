// Package output prints the user-facing progress lines of a provisioning
// run: echoed commands, backup and link notices, and the final failure line.
//
// Output is styled with lipgloss when it goes to a terminal and NO_COLOR is
// unset; otherwise the lines are plain text so they can be piped or logged.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// CommandPrefix starts every echoed command line
const CommandPrefix = "+ "

// FailurePrefix starts the line naming the command that ended the run
const FailurePrefix = "Command failed: "

// Printer writes progress lines
type Printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer

	command lipgloss.Style
	notice  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	path    lipgloss.Style
}

// New creates a printer that styles its output only when w is a terminal
func New(w io.Writer) *Printer {
	return newPrinter(w, IsTerminal(w) && os.Getenv("NO_COLOR") == "")
}

// NewPlain creates a printer that never emits escape sequences
func NewPlain(w io.Writer) *Printer {
	return newPrinter(w, false)
}

func newPrinter(w io.Writer, styled bool) *Printer {
	renderer := lipgloss.NewRenderer(w)
	if !styled {
		renderer.SetColorProfile(termenv.Ascii)
	}

	return &Printer{
		w:        w,
		renderer: renderer,
		command:  renderer.NewStyle().Foreground(CommandColor),
		notice:   renderer.NewStyle().Foreground(InfoColor),
		success:  renderer.NewStyle().Foreground(SuccessColor).Bold(true),
		warning:  renderer.NewStyle().Foreground(WarningColor).Bold(true),
		failure:  renderer.NewStyle().Foreground(ErrorColor).Bold(true),
		path:     renderer.NewStyle().Foreground(PathColor),
	}
}

// IsTerminal reports whether w is a terminal file descriptor
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Writer returns the underlying writer. Child processes share it so that
// their output interleaves with the echoed commands.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Command echoes a command line before it runs
func (p *Printer) Command(line string) {
	p.println(p.command.Render(CommandPrefix + line))
}

// Noticef prints an informational progress line
func (p *Printer) Noticef(format string, args ...interface{}) {
	p.println(p.notice.Render(fmt.Sprintf(format, args...)))
}

// Path styles a filesystem path for inclusion in a notice
func (p *Printer) Path(path string) string {
	return p.path.Render(path)
}

// Successf prints a success line
func (p *Printer) Successf(format string, args ...interface{}) {
	p.println(p.success.Render(fmt.Sprintf(format, args...)))
}

// Warnf prints a warning line
func (p *Printer) Warnf(format string, args ...interface{}) {
	p.println(p.warning.Render(fmt.Sprintf(format, args...)))
}

// Failure prints the final line naming the command that failed
func (p *Printer) Failure(line string) {
	p.println(p.failure.Render(FailurePrefix + line))
}

// Errorf prints an error line that is not tied to a command
func (p *Printer) Errorf(format string, args ...interface{}) {
	p.println(p.failure.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}
