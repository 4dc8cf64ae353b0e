package log

import "time"

// MaxTextSize is the number of message bytes kept in MessageEvent.Text.
const MaxTextSize = 256

// Event represents a protocol log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the socket (UUID). A reconnect gets
	// a new ID for the same address.
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Address is the remote server address.
	Address string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"6,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"7,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"8,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a message sent or received.
	CategoryMessage Category = 0
	// CategoryState indicates a socket state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageKind classifies a remote-server message.
type MessageKind uint8

const (
	// MessageKindPoll is the "G" state refresh poll.
	MessageKindPoll MessageKind = 0
	// MessageKindBankCommand is an "X/0/<value>/<bank>" selection command.
	MessageKindBankCommand MessageKind = 1
	// MessageKindFarewell is the message sent when a position unsubscribes.
	MessageKindFarewell MessageKind = 2
	// MessageKindEphemeral is a one-shot message on a throwaway socket.
	MessageKindEphemeral MessageKind = 3
	// MessageKindStatus is an inbound status update.
	MessageKindStatus MessageKind = 4
)

// String returns the message kind name.
func (k MessageKind) String() string {
	switch k {
	case MessageKindPoll:
		return "POLL"
	case MessageKindBankCommand:
		return "BANK_COMMAND"
	case MessageKindFarewell:
		return "FAREWELL"
	case MessageKindEphemeral:
		return "EPHEMERAL"
	case MessageKindStatus:
		return "STATUS"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures one message.
type MessageEvent struct {
	// Kind of message.
	Kind MessageKind `cbor:"1,keyasint"`

	// Size is the message size in bytes.
	Size int `cbor:"2,keyasint"`

	// Text is the message content, truncated to MaxTextSize bytes.
	Text string `cbor:"3,keyasint,omitempty"`

	// Truncated indicates if Text was truncated.
	Truncated bool `cbor:"4,keyasint,omitempty"`

	// Status is the decoded status value of a status update.
	Status *uint16 `cbor:"5,keyasint,omitempty"`
}

// NewMessageEvent builds a MessageEvent from raw message bytes.
func NewMessageEvent(kind MessageKind, data []byte) *MessageEvent {
	m := &MessageEvent{Kind: kind, Size: len(data)}
	if len(data) > MaxTextSize {
		m.Text = string(data[:MaxTextSize])
		m.Truncated = true
	} else {
		m.Text = string(data)
	}
	return m
}

// StateChangeEvent captures socket lifecycle changes.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
