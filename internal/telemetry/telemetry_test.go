package telemetry_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petasbytes/expense-agent/internal/telemetry"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}

func readEventLines(t *testing.T) []string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(".agent", "events.jsonl"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

func TestEmit_DisabledWritesNothing(t *testing.T) {
	t.Setenv("AGT_OBSERVE_JSON", "0")
	chdir(t, t.TempDir())

	telemetry.Emit("noop", map[string]any{"k": "v"})
	if got := readEventLines(t); got != nil {
		t.Fatalf("expected no events, got %d", len(got))
	}
}

func TestEmit_AppendsJSONL(t *testing.T) {
	t.Setenv("AGT_OBSERVE_JSON", "1")
	chdir(t, t.TempDir())

	telemetry.Emit("history_trimmed", map[string]any{"removed": 2})
	telemetry.Emit("history_trimmed", map[string]any{"removed": 1})

	lines := readEventLines(t)
	if len(lines) != 2 {
		t.Fatalf("want 2 events, got %d", len(lines))
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["event"] != "history_trimmed" || m["removed"] != float64(2) {
		t.Fatalf("unexpected event: %v", m)
	}
	if _, ok := m["time"].(string); !ok {
		t.Fatal("missing time field")
	}
}

func TestEmitInputFeatures(t *testing.T) {
	t.Setenv("AGT_OBSERVE_JSON", "1")
	chdir(t, t.TempDir())

	ctx := telemetry.WithTurnID(context.Background(), "turn-42")
	telemetry.EmitInputFeatures(ctx, "beli kopi 15000")

	lines := readEventLines(t)
	if len(lines) != 1 {
		t.Fatalf("want 1 event, got %d", len(lines))
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["event"] != "input_features" || m["turn_id"] != "turn-42" {
		t.Fatalf("unexpected event: %v", m)
	}
	input, ok := m["input"].(map[string]any)
	if !ok || input["words"] != float64(3) || input["lines"] != float64(1) {
		t.Fatalf("unexpected features: %v", m["input"])
	}
}
