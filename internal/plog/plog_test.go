package plog

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestPlogLevels(t *testing.T) {
	var logBuf bytes.Buffer
	SetOutput(&logBuf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	t.Run("Logs all levels when level is Debug", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelDebug)

		Debug("debug message", "key", "val1")
		Info("info message", "key", "val2")
		Warn("warn message")

		output := logBuf.String()
		if !strings.Contains(output, "level=DEBUG msg=\"debug message\" key=val1") {
			t.Errorf("expected debug message to be logged, got: %s", output)
		}
		if !strings.Contains(output, "level=INFO msg=\"info message\" key=val2") {
			t.Errorf("expected info message to be logged, got: %s", output)
		}
		if !strings.Contains(output, "level=WARN msg=\"warn message\"") {
			t.Errorf("expected warn message to be logged, got: %s", output)
		}
	})

	t.Run("Suppresses lower levels when level is Warn", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelWarn)

		Debug("debug message")
		Info("info message")
		Error("error message")

		output := logBuf.String()
		if strings.Contains(output, "level=DEBUG") || strings.Contains(output, "level=INFO") {
			t.Errorf("expected no debug or info output at warn level, got: %s", output)
		}
		if !strings.Contains(output, "level=ERROR") {
			t.Errorf("expected error output, got: %s", output)
		}
	})

	t.Run("Quiet mode drops info but keeps warnings", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelInfo)
		SetQuiet(true)
		defer SetQuiet(false)

		if !IsQuiet() {
			t.Fatalf("expected quiet mode to be on")
		}
		Info("info message")
		Warn("warn message")

		output := logBuf.String()
		if strings.Contains(output, "info message") {
			t.Errorf("expected info to be suppressed in quiet mode, got: %s", output)
		}
		if !strings.Contains(output, "warn message") {
			t.Errorf("expected warn to pass in quiet mode, got: %s", output)
		}
	})

	t.Run("Logger carries attributes", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelInfo)

		Logger("job", "abc").Warn("scoped")

		if !strings.Contains(logBuf.String(), "msg=scoped job=abc") {
			t.Errorf("expected scoped attribute, got: %s", logBuf.String())
		}
	})
}
