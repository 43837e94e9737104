package cliout

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// IsTerminal returns true if stdout is a terminal (TTY). It returns true
// for POSIX terminals and for Windows ConPTY/Cygwin terminals.
func IsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// StyleIfTerminal applies style to content when stdout is a terminal, and
// returns content unchanged otherwise so piped output stays plain.
func StyleIfTerminal(style lipgloss.Style, content string) string {
	if IsTerminal() {
		return style.Render(content)
	}
	return content
}
