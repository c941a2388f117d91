package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerWithWriter_JSONByDefault(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerWithWriter(&buf, "", "info")
	logger.Info("hello", "k", "v")

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Errorf("expected JSON output, got %q", out)
	}
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("missing message in output: %q", out)
	}
}

func TestNewLoggerWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerWithWriter(&buf, "text", "info")
	logger.Info("hello", "k", "v")

	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("expected text output, got %q", out)
	}
	if !strings.Contains(out, "msg=hello") {
		t.Errorf("missing message in output: %q", out)
	}
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerWithWriter(&buf, "text", "warn")
	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info line leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNewLoggerWithWriter_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLoggerWithWriter(&buf, "json", "debug")
	logger.Debug("tracing")

	out := buf.String()
	if !strings.Contains(out, `"source"`) {
		t.Errorf("debug level should attach source info: %q", out)
	}
}

func TestNewLogger_VerboseForcesDebug(t *testing.T) {
	logger := NewLogger("json", "error", true)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("verbose logger should accept debug records")
	}
}

func TestSetDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "json", "info")
	SetDefault(logger)

	slog.Info("routed")
	if !strings.Contains(buf.String(), "routed") {
		t.Errorf("default logger not replaced: %q", buf.String())
	}
}
