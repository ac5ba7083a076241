package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Error(errors.New("boom"))
	logger.Warn(errors.New("boom"))
	logger.Info("info %d", 1)
	logger.Debug("debug")
	logger.Trace("trace")
	if sub := logger.Sublogger("child"); sub != nil {
		t.Fatal("a nil logger's sublogger must stay nil")
	}
}

func TestLevelFiltering(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(LevelWarn, &out)

	logger.Info("dropped")
	logger.Debug("dropped")
	if out.Len() != 0 {
		t.Fatalf("info/debug must be dropped at warn level, got %q", out.String())
	}

	logger.Warn(errors.New("kept"))
	if !strings.Contains(out.String(), "kept") {
		t.Fatalf("warning missing from output: %q", out.String())
	}
}

func TestSubloggerNamesNest(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(LevelInfo, &out).Sublogger("sync").Sublogger("reconcile")

	logger.Info("hello")
	if !strings.Contains(out.String(), "[sync.reconcile]") {
		t.Fatalf("expected nested subsystem tag, got %q", out.String())
	}
}

func TestNameToLevelRoundTrip(t *testing.T) {
	for _, name := range []string{"disabled", "error", "warn", "info", "debug", "trace"} {
		level, ok := NameToLevel(name)
		if !ok {
			t.Fatalf("%q not recognized", name)
		}
		if level.String() != name {
			t.Fatalf("round trip failed: %q -> %v -> %q", name, level, level.String())
		}
	}
	if _, ok := NameToLevel("verbose"); ok {
		t.Fatal("unknown name must be rejected")
	}
}
