package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedMessage is returned for inbound messages that are not a JSON
// object with a numeric B0 field in 0..65535.
var ErrMalformedMessage = errors.New("malformed message")

// Wire tokens sent to remote servers.
const (
	// PollToken asks the server to push its current state.
	PollToken = "G"
)

type statusMessage struct {
	B0 *float64 `json:"B0"`
}

// ParseStatus extracts the packed status value from an inbound message.
func ParseStatus(data []byte) (uint16, error) {
	var msg statusMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.B0 == nil {
		return 0, fmt.Errorf("%w: missing B0", ErrMalformedMessage)
	}

	f := *msg.B0
	if f < 0 || f > math.MaxUint16 || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: B0 out of range: %v", ErrMalformedMessage, f)
	}
	return uint16(f), nil
}
