package main

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Watchdog", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Watchdog:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Watchdog", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		at   *time.Time
		want string
	}{
		{"never", nil, "never"},
		{"just now", timePtr(now.Add(-30 * time.Second)), "just now"},
		{"minutes", timePtr(now.Add(-5 * time.Minute)), "5m ago"},
		{"hours", timePtr(now.Add(-3 * time.Hour)), "3h ago"},
		{"days", timePtr(now.Add(-72 * time.Hour)), "3d ago"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatTimeAgo(tc.at, now); got != tc.want {
				t.Fatalf("formatTimeAgo = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatDueIn(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := formatDueIn(nil, true, now); got != "due now" {
		t.Fatalf("due topic = %q, want \"due now\"", got)
	}
	if got := formatDueIn(timePtr(now.Add(-time.Minute)), false, now); got != "due now" {
		t.Fatalf("past deadline = %q, want \"due now\"", got)
	}
	if got := formatDueIn(timePtr(now.Add(30*time.Minute)), false, now); got != "in 30m" {
		t.Fatalf("minutes remaining = %q, want \"in 30m\"", got)
	}
	if got := formatDueIn(timePtr(now.Add(5*time.Hour)), false, now); got != "in 5h" {
		t.Fatalf("hours remaining = %q, want \"in 5h\"", got)
	}
}

func TestTruncateSummary(t *testing.T) {
	if got := truncateSummary("short", 60); got != "short" {
		t.Fatalf("short summary changed: %q", got)
	}
	long := strings.Repeat("word ", 30)
	got := truncateSummary(long, 20)
	if len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected 20-char truncation ending in ellipsis, got %q", got)
	}
	if got := truncateSummary("line\none\ttwo", 60); got != "line one two" {
		t.Fatalf("whitespace not collapsed: %q", got)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
