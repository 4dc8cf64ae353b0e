package log

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.qlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		event, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, event)
	}
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), ConnectionID: "conn-1", Direction: DirectionIn, Category: CategoryMessage},
		{Timestamp: time.Now(), ConnectionID: "conn-2", Direction: DirectionOut, Category: CategoryMessage},
		{Timestamp: time.Now(), ConnectionID: "conn-3", Direction: DirectionIn, Category: CategoryState},
	}

	reader, err := NewReader(createTestLogFile(t, events))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)
	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}
	if read[0].ConnectionID != "conn-1" || read[2].ConnectionID != "conn-3" {
		t.Errorf("events out of order: %q .. %q", read[0].ConnectionID, read[2].ConnectionID)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, ConnectionID: "a", Address: "ws://one", Direction: DirectionOut, Category: CategoryMessage},
		{Timestamp: base.Add(time.Second), ConnectionID: "b", Address: "ws://two", Direction: DirectionIn, Category: CategoryMessage},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "a", Address: "ws://one", Direction: DirectionIn, Category: CategoryState},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: "c", Address: "ws://one", Category: CategoryError},
	}
	path := createTestLogFile(t, events)

	in := DirectionIn
	state := CategoryState
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"All", Filter{}, []string{"a", "b", "a", "c"}},
		{"ByConnection", Filter{ConnectionID: "a"}, []string{"a", "a"}},
		{"ByAddress", Filter{Address: "ws://two"}, []string{"b"}},
		{"ByDirection", Filter{Direction: &in}, []string{"b", "a"}},
		{"ByCategory", Filter{Category: &state}, []string{"a"}},
		{"ByTime", Filter{TimeStart: &start, TimeEnd: &end}, []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader: %v", err)
			}
			defer r.Close()

			got := readAll(t, r)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			if r.Decoded() != 4 {
				t.Errorf("Decoded() = %d, want 4", r.Decoded())
			}
			for i, e := range got {
				if e.ConnectionID != tt.want[i] {
					t.Errorf("event %d ConnectionID = %q, want %q", i, e.ConnectionID, tt.want[i])
				}
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.qlog")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReaderTruncatedRecord(t *testing.T) {
	first, err := EncodeEvent(Event{Timestamp: time.Now(), ConnectionID: "a"})
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	second, err := EncodeEvent(Event{Timestamp: time.Now(), ConnectionID: "b", Address: "ws://one"})
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}

	path := filepath.Join(t.TempDir(), "cut.qlog")
	data := append(first, second[:len(second)/2]...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	if e, err := r.Next(); err != nil || e.ConnectionID != "a" {
		t.Fatalf("first Next() = %q, %v", e.ConnectionID, err)
	}
	_, err = r.Next()
	if err == nil || err == io.EOF {
		t.Fatalf("second Next() error = %v, want a decode error", err)
	}
	if !strings.Contains(err.Error(), "capture record 2") {
		t.Errorf("error %q does not name the record", err)
	}
}
