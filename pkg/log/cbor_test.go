package log

import (
	"bytes"
	"testing"
	"time"
)

func TestEventRoundTrip(t *testing.T) {
	status := uint16(1028)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)

	events := []Event{
		{
			Timestamp:    ts,
			ConnectionID: "c1",
			Direction:    DirectionIn,
			Category:     CategoryMessage,
			Address:      "ws://127.0.0.1:1880/ws",
			Message: &MessageEvent{
				Kind:   MessageKindStatus,
				Size:   11,
				Text:   `{"B0":1028}`,
				Status: &status,
			},
		},
		{
			Timestamp:    ts,
			ConnectionID: "c2",
			Direction:    DirectionOut,
			Category:     CategoryState,
			StateChange:  &StateChangeEvent{OldState: "CONNECTING", NewState: "OPEN"},
		},
		{
			Timestamp:    ts,
			ConnectionID: "c3",
			Category:     CategoryError,
			Error:        &ErrorEventData{Message: "dial failed", Context: "reconnect"},
		},
	}

	for _, want := range events {
		data, err := EncodeEvent(want)
		if err != nil {
			t.Fatalf("EncodeEvent: %v", err)
		}
		got, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent: %v", err)
		}

		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
		}
		if got.ConnectionID != want.ConnectionID || got.Category != want.Category || got.Address != want.Address {
			t.Errorf("header mismatch: got %+v, want %+v", got, want)
		}
		switch {
		case want.Message != nil:
			if got.Message == nil || got.Message.Status == nil || *got.Message.Status != status {
				t.Errorf("Message = %+v", got.Message)
			}
		case want.StateChange != nil:
			if got.StateChange == nil || *got.StateChange != *want.StateChange {
				t.Errorf("StateChange = %+v", got.StateChange)
			}
		case want.Error != nil:
			if got.Error == nil || *got.Error != *want.Error {
				t.Errorf("Error = %+v", got.Error)
			}
		}
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i := 0; i < 3; i++ {
		if err := enc.Encode(Event{ConnectionID: string(rune('a' + i))}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	dec := NewDecoder(&buf)
	for i := 0; i < 3; i++ {
		var e Event
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if e.ConnectionID != string(rune('a'+i)) {
			t.Errorf("event %d ConnectionID = %q", i, e.ConnectionID)
		}
	}
}
