package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ColorChoice controls whether shell output is colored.
type ColorChoice string

const (
	ColorAuto   ColorChoice = "auto"
	ColorAlways ColorChoice = "always"
	ColorNever  ColorChoice = "never"
)

// ParseColorChoice parses a color setting, defaulting to "auto".
func ParseColorChoice(s string) (ColorChoice, error) {
	switch ColorChoice(s) {
	case ColorAuto, "":
		return ColorAuto, nil
	case ColorAlways:
		return ColorAlways, nil
	case ColorNever:
		return ColorNever, nil
	default:
		return "", fmt.Errorf("unknown color setting: %q (must be auto, always, or never)", s)
	}
}

// Shell prints cargo-style status lines: a right-aligned verb followed by a
// message.
type Shell struct {
	out    io.Writer
	mu     sync.Mutex
	status lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
}

// NewShell creates a shell writing to out.
func NewShell(out io.Writer, color ColorChoice) *Shell {
	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(colorProfile(out, color))
	return &Shell{
		out:    out,
		status: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		warn:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		err:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

// Status prints a status line such as "    Updating foo".
func (s *Shell) Status(verb, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "%s %s\n", s.status.Render(fmt.Sprintf("%12s", verb)), msg)
}

// Warn prints a warning line.
func (s *Shell) Warn(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "%s %s\n", s.warn.Render("warning:"), msg)
}

// Error prints an error line.
func (s *Shell) Error(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "%s %v\n", s.err.Render("error:"), err)
}

func colorProfile(out io.Writer, color ColorChoice) termenv.Profile {
	switch color {
	case ColorAlways:
		return termenv.ANSI
	case ColorNever:
		return termenv.Ascii
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return termenv.ANSI
	}
	return termenv.Ascii
}
