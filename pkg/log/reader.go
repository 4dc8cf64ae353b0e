package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects captured events. Zero fields match everything; set fields
// must all match.
type Filter struct {
	// ConnectionID selects one socket. A reconnect gets a new ID.
	ConnectionID string

	// Address selects every socket to one remote server.
	Address string

	Direction *Direction
	Category  *Category

	// TimeStart is inclusive, TimeEnd exclusive.
	TimeStart *time.Time
	TimeEnd   *time.Time
}

func (f *Filter) matches(e Event) bool {
	switch {
	case f.ConnectionID != "" && e.ConnectionID != f.ConnectionID:
	case f.Address != "" && e.Address != f.Address:
	case f.Direction != nil && e.Direction != *f.Direction:
	case f.Category != nil && e.Category != *f.Category:
	case f.TimeStart != nil && e.Timestamp.Before(*f.TimeStart):
	case f.TimeEnd != nil && !e.Timestamp.Before(*f.TimeEnd):
	default:
		return true
	}
	return false
}

// Reader streams events from a capture file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter

	// read counts decoded events, matching or not.
	read int
}

// NewReader opens a capture file for reading every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens a capture file and yields only events matching
// filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, decoder: NewDecoder(f), filter: filter}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
// A truncated or corrupt record is reported with its position.
func (r *Reader) Next() (Event, error) {
	for {
		var e Event
		err := r.decoder.Decode(&e)
		if errors.Is(err, io.EOF) {
			return Event{}, io.EOF
		}
		if err != nil {
			return Event{}, fmt.Errorf("capture record %d: %w", r.read+1, err)
		}
		r.read++
		if r.filter.matches(e) {
			return e, nil
		}
	}
}

// Decoded returns how many events have been decoded so far, including those
// the filter skipped.
func (r *Reader) Decoded() int {
	return r.read
}

// Close closes the capture file.
func (r *Reader) Close() error {
	return r.file.Close()
}
