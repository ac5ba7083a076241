// Package cmdutil provides shared CLI helpers: a colored warning/error
// printer and a Mainify wrapper
// that lets a Cobra entry point return an error while still running
// deferred cleanup, translating that error into a process exit code at
// the single boundary cmd/modcore's main uses.
package cmdutil

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func init() {
	// Colored output is only meaningful on a terminal; piped or
	// redirected output gets plain text.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Warning prints a warning message to standard error.
func Warning(message string) {
	fmt.Fprintln(color.Error, color.YellowString("Warning:"), message)
}

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// Fatal prints an error message to standard error and terminates the
// process with an error exit code.
func Fatal(err error) {
	Error(err)
	os.Exit(1)
}

// Mainify wraps a non-standard Cobra entry point (one returning an error)
// and produces a standard Cobra entry point. This lets entry points rely
// on defer-based cleanup, which a direct os.Exit from within the entry
// point would skip.
func Mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			Fatal(err)
		}
	}
}
