package streamdeck

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedEvent is returned for host messages that are not JSON objects
// or carry no event name.
var ErrMalformedEvent = errors.New("malformed host event")

// Inbound event names handled by the plugin.
const (
	EventDidReceiveSettings = "didReceiveSettings"
	EventWillAppear         = "willAppear"
	EventWillDisappear      = "willDisappear"
	EventKeyDown            = "keyDown"
	EventKeyUp              = "keyUp"

	// EventSendToPlugin is emitted by the property inspector. Its payload
	// holds one inspector field, not button settings.
	EventSendToPlugin = "sendToPlugin"
)

// Event is a message received from the host.
type Event struct {
	Event   string   `json:"event"`
	Action  string   `json:"action,omitempty"`
	Context string   `json:"context,omitempty"`
	Device  string   `json:"device,omitempty"`
	Payload *Payload `json:"payload,omitempty"`

	raw json.RawMessage
}

// Payload is the event payload. Only the fields the plugin reads are
// decoded.
type Payload struct {
	Settings        *Settings    `json:"settings,omitempty"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
	IsInMultiAction bool         `json:"isInMultiAction,omitempty"`
}

// Settings are the per-button settings edited in the property inspector.
type Settings struct {
	// RemoteServer is the websocket address of the remote server.
	RemoteServer string `json:"remoteServer,omitempty"`

	// ID names the slot the button controls, e.g. "btn_3".
	ID string `json:"id,omitempty"`

	// Label is shown as the button title while the display is active.
	Label string `json:"btnlabel,omitempty"`
}

// Coordinates locate a button on the panel.
type Coordinates struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// ParseEvent decodes a host message.
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedEvent)
	}
	ev.raw = append(json.RawMessage(nil), data...)
	return &ev, nil
}

// Raw returns the message exactly as received. Events built in code are
// marshaled on demand.
func (e *Event) Raw() []byte {
	if e.raw != nil {
		return e.raw
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}

// MarshalJSON forwards the original message when one is available.
func (e *Event) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	type plain Event
	return json.Marshal((*plain)(e))
}

// Settings returns the payload settings, or nil.
func (e *Event) Settings() *Settings {
	if e.Payload == nil {
		return nil
	}
	return e.Payload.Settings
}

// RemoteServer returns settings.remoteServer, or "".
func (e *Event) RemoteServer() string {
	if s := e.Settings(); s != nil {
		return s.RemoteServer
	}
	return ""
}

// InMultiAction reports whether the event comes from a multi-action.
func (e *Event) InMultiAction() bool {
	return e.Payload != nil && e.Payload.IsInMultiAction
}

// Position returns the "<column>-<row>" identifier of the button, or "" when
// the event has no coordinates.
func (e *Event) Position() string {
	if e.Payload == nil || e.Payload.Coordinates == nil {
		return ""
	}
	return e.Payload.Coordinates.String()
}

// String returns "<column>-<row>".
func (c Coordinates) String() string {
	return strconv.Itoa(c.Column) + "-" + strconv.Itoa(c.Row)
}
