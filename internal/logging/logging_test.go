package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := New(&stdout, &stderr, slog.LevelInfo, "json")

	logger.Debug("hidden")
	logger.Info("invite created", "household_id", "h1")

	if stderr.Len() != 0 {
		t.Errorf("json logger wrote to stderr: %q", stderr.String())
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug filtered)", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["msg"] != "invite created" || entry["household_id"] != "h1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_Text(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := New(&stdout, &stderr, slog.LevelDebug, "TEXT")

	logger.Debug("role changed")

	if stdout.Len() != 0 {
		t.Errorf("text logger wrote to stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "role changed") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
