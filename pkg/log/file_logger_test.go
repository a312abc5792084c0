package log

import (
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.sdlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	logger.Log(Event{
		Timestamp:  ts,
		TraceID:    "trace-1",
		Direction:  DirectionIn,
		Layer:      LayerTransport,
		Category:   CategoryMessage,
		Instance:   "sd0",
		RemoteAddr: "10.0.0.2:30490",
		Datagram:   &DatagramEvent{Size: 3, Data: []byte{1, 2, 3}},
	})
	logger.Log(Event{
		Timestamp:   ts.Add(time.Millisecond),
		TraceID:     "trace-1",
		Direction:   DirectionNone,
		Layer:       LayerEngine,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Entity: StateEntityServer, Name: "radar", OldState: "NOT_READY", NewState: "INITIAL_WAIT"},
	})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// second close is a no-op
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	logger.Log(Event{TraceID: "after-close"})

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	first, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !first.Timestamp.Equal(ts) {
		t.Errorf("timestamp: got %v, want %v", first.Timestamp, ts)
	}
	if first.Datagram == nil || first.Datagram.Size != 3 {
		t.Errorf("datagram: %+v", first.Datagram)
	}

	second, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second.StateChange == nil || second.StateChange.NewState != "INITIAL_WAIT" {
		t.Errorf("state change: %+v", second.StateChange)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestFileLoggerConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.sdlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(Event{Timestamp: time.Now(), TraceID: "t", Layer: LayerWire})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	n := 0
	for {
		if _, err := r.Next(); err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("Next: %v", err)
			}
			break
		}
		n++
	}
	if n != 200 {
		t.Errorf("got %d events, want 200", n)
	}
	if logger.Dropped() != 0 {
		t.Errorf("dropped %d events", logger.Dropped())
	}
}
