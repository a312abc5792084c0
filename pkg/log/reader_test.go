package log

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func writeCapture(t *testing.T, events ...Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.sdlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, ev := range events {
		logger.Log(ev)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func readAll(t *testing.T, path string, f Filter) []Event {
	t.Helper()
	r, err := NewFilteredReader(path, f)
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer r.Close()
	var out []Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, ev)
	}
}

func TestFilteredReader(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in, out := DirectionIn, DirectionOut
	state := CategoryState
	client := StateEntityClient

	path := writeCapture(t,
		Event{Timestamp: base, TraceID: "a", Instance: "sd0", Direction: DirectionIn, Category: CategoryMessage, RemoteAddr: "10.0.0.2:30490"},
		Event{Timestamp: base.Add(time.Second), TraceID: "a", Instance: "sd0", Direction: DirectionOut, Category: CategoryMessage, RemoteAddr: "10.0.0.3:30490"},
		Event{Timestamp: base.Add(2 * time.Second), TraceID: "a", Instance: "sd1", Direction: DirectionNone, Category: CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityClient, NewState: "SERVICE_READY"}},
		Event{Timestamp: base.Add(3 * time.Second), TraceID: "b", Instance: "sd0", Direction: DirectionNone, Category: CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityServer, NewState: "MAIN"}},
	)

	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filter", Filter{}, 4},
		{"trace id", Filter{TraceID: "a"}, 3},
		{"instance", Filter{Instance: "sd0"}, 3},
		{"direction in", Filter{Direction: &in}, 1},
		{"direction out and instance", Filter{Direction: &out, Instance: "sd0"}, 1},
		{"remote", Filter{RemoteAddr: "10.0.0.2:30490"}, 1},
		{"category", Filter{Category: &state}, 2},
		{"entity", Filter{Entity: &client}, 1},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAll(t, path, tt.filter)
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.sdlog")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	ev := Event{
		Timestamp: time.Date(2026, 5, 1, 0, 0, 0, 1, time.UTC),
		TraceID:   "x",
		Layer:     LayerEngine,
		Error:     &ErrorEventData{Layer: LayerWire, Message: "boom", Context: "decode"},
	}
	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if got.Error == nil || got.Error.Message != "boom" || got.Error.Layer != LayerWire {
		t.Errorf("error payload: %+v", got.Error)
	}
	if _, err := DecodeEvent([]byte{0xff}); err == nil {
		t.Error("expected decode error for garbage")
	}
}
