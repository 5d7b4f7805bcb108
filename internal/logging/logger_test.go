package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/natefinch/lumberjack"

	"github.com/vanshika/hubnet/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "hub_id", "A")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %q", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("expected JSON output, got %v", err)
	}
	if record["msg"] != "kept" || record["hub_id"] != "A" {
		t.Errorf("unexpected record %v", record)
	}
}

func TestOutput(t *testing.T) {
	if Output(config.LoggingConfig{}) != os.Stdout {
		t.Errorf("expected stdout without a log file")
	}

	path := filepath.Join(t.TempDir(), "hubnet.log")
	w := Output(config.LoggingConfig{File: path, MaxSizeMB: 5, MaxBackups: 2})
	lj, ok := w.(*lumberjack.Logger)
	if !ok {
		t.Fatalf("expected rotating writer, got %T", w)
	}
	defer lj.Close()
	if lj.MaxSize != 5 || lj.MaxBackups != 2 {
		t.Errorf("unexpected rotation settings %+v", lj)
	}

	NewWithWriter(config.LoggingConfig{}, lj).Info("to file")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file, got %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("expected record in file, got %q", data)
	}
}
