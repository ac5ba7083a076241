// Package logging provides the engine's leveled logger: subsystem-tagged
// lines on a single destination, with the property that a nil *Logger is
// valid and discards everything, so call sites can hold a *Logger without
// a separate enabled check. cmd/modcore's sync and watch subcommands are
// its users.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger writes leveled, subsystem-tagged lines. It is safe for
// concurrent use; subloggers share the parent's destination and lock so
// interleaved subsystems never tear each other's lines.
type Logger struct {
	name  string
	level Level
	out   io.Writer
	mu    *sync.Mutex
}

// NewLogger creates a root logger writing to out at the given level. A
// nil out defaults to standard error.
func NewLogger(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{level: level, out: out, mu: &sync.Mutex{}}
}

// Sublogger derives a logger named parent.name, inheriting the parent's
// level, destination, and lock. A nil receiver yields a nil sublogger,
// so a chain of Sublogger calls on a disabled logger stays free.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	if l.name != "" {
		name = l.name + "." + name
	}
	return &Logger{name: name, level: l.level, out: l.out, mu: l.mu}
}

func (l *Logger) enabled(level Level) bool {
	return l != nil && level != LevelDisabled && l.level >= level
}

func (l *Logger) emit(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stamp := time.Now().Format("15:04:05.000")
	if l.name != "" {
		fmt.Fprintf(l.out, "%s [%s] %s\n", stamp, l.name, line)
		return
	}
	fmt.Fprintf(l.out, "%s %s\n", stamp, line)
}

// Error logs an error with a red prefix.
func (l *Logger) Error(err error) {
	if l.enabled(LevelError) {
		l.emit(color.RedString("error:") + " " + err.Error())
	}
}

// Warn logs a non-fatal problem with a yellow prefix.
func (l *Logger) Warn(err error) {
	if l.enabled(LevelWarn) {
		l.emit(color.YellowString("warning:") + " " + err.Error())
	}
}

// Info logs a formatted line of normal operational output.
func (l *Logger) Info(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.emit(fmt.Sprintf(format, v...))
	}
}

// Debug logs per-operation detail.
func (l *Logger) Debug(format string, v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.emit(fmt.Sprintf(format, v...))
	}
}

// Trace logs the firehose.
func (l *Logger) Trace(format string, v ...interface{}) {
	if l.enabled(LevelTrace) {
		l.emit(fmt.Sprintf(format, v...))
	}
}
