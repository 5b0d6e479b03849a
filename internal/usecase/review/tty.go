package review

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal reports whether stdout is a terminal. Check runs
// print findings in a human layout on a terminal and fall back to
// plain workflow output when piped or running in CI.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
