package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func decodeSlog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Timestamp: time.Now(),
		TraceID:   "trace-9",
		Direction: DirectionNone,
		Layer:     LayerEngine,
		Category:  CategoryState,
		Instance:  "sd0",
		StateChange: &StateChangeEvent{
			Entity:   StateEntityClient,
			Name:     "radar",
			OldState: "SEARCHING_INITIAL_WAIT",
			NewState: "SERVICE_READY",
			Reason:   "offer",
		},
	})

	entry := decodeSlog(t, &buf)
	checks := map[string]string{
		"trace_id":  "trace-9",
		"layer":     "ENGINE",
		"instance":  "sd0",
		"entity":    "CLIENT",
		"new_state": "SERVICE_READY",
		"reason":    "offer",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s: got %v, want %q", k, entry[k], want)
		}
	}
}

func TestSlogAdapterLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		TraceID:    "t",
		Direction:  DirectionOut,
		Layer:      LayerWire,
		RemoteAddr: "10.0.0.2:30490",
		Message: &MessageEvent{
			SessionID: 7,
			Entries:   []EntryEvent{{ServiceID: 0x1234, InstanceID: 1, TTL: 3}},
		},
	})

	entry := decodeSlog(t, &buf)
	if entry["session"] != float64(7) {
		t.Errorf("session: got %v", entry["session"])
	}
	if entry["entries"] != float64(1) {
		t.Errorf("entries: got %v", entry["entries"])
	}
	if entry["remote"] != "10.0.0.2:30490" {
		t.Errorf("remote: got %v", entry["remote"])
	}
}

func TestSlogAdapterSkippedAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	adapter.Log(Event{TraceID: "t"})
	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %q", buf.String())
	}
}
