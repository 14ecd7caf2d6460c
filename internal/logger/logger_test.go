package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriter_DevLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "dev")
	log.Debug("calculated", "rows", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log record: %v (raw=%q)", err, buf.String())
	}
	if rec["msg"] != "calculated" {
		t.Fatalf("msg=%v, want %q", rec["msg"], "calculated")
	}
	if rec["rows"] != float64(3) {
		t.Fatalf("rows=%v, want 3", rec["rows"])
	}
}

func TestNewWithWriter_ProdSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "prod")
	log.Debug("hidden")

	if buf.Len() != 0 {
		t.Fatalf("expected no output for debug in prod, got %q", buf.String())
	}
}
