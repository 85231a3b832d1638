package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "pools", func(ctx context.Context) string { return "abc123" })

	log.Info(context.Background(), "pipeline finished", "rows_in", 4, "rows_out", 2)
	_ = log.Sync()

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}

	if entry["msg"] != "pipeline finished" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["service"] != "pools" {
		t.Errorf("service = %v", entry["service"])
	}
	if entry["rows_out"] != float64(2) {
		t.Errorf("rows_out = %v", entry["rows_out"])
	}
	if entry["trace_id"] != "abc123" {
		t.Errorf("trace_id = %v", entry["trace_id"])
	}
}

func TestLogger_RespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "pools", nil)

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden too")
	log.Warn(context.Background(), "shown")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("expected warn line, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug": LevelDebug,
		"warn":  LevelWarn,
		"error": LevelError,
		"info":  LevelInfo,
		"":      LevelInfo,
		"loud":  LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
