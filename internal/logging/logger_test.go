package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.input); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	logger = WithComponent(logger, "daemon")
	logger.Info("check complete",
		String(FieldTopic, "go releases"),
		Int("queries", 2),
		Duration(FieldDuration, 1500*time.Millisecond),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO daemon: check complete") {
		t.Fatalf("missing component prefix in %q", line)
	}
	if !strings.Contains(line, `topic="go releases"`) {
		t.Errorf("missing quoted topic attr in %q", line)
	}
	if !strings.Contains(line, "queries=2") {
		t.Errorf("missing int attr in %q", line)
	}
	if !strings.Contains(line, "duration=1.5s") {
		t.Errorf("missing duration attr in %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info record emitted below threshold: %q", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "WARN kept") {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

func TestConsoleHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false)).WithGroup("llm")

	logger.Info("request", Int("rounds", 3))
	if !strings.Contains(buf.String(), "llm.rounds=3") {
		t.Fatalf("group prefix missing: %q", buf.String())
	}
}

func TestErrorAttrNil(t *testing.T) {
	attr := Error(nil)
	if !attr.Equal(slog.Attr{}) {
		t.Fatalf("Error(nil) = %v, want empty attr", attr)
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled at any level")
	}
	// Must not panic.
	logger.Error("ignored", Error(context.Canceled))
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
