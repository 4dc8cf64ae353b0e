package streamdeck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const willAppear = `{
	"event": "willAppear",
	"action": "cz.qro.ws.toggle",
	"context": "ctx-1",
	"device": "dev-1",
	"payload": {
		"settings": {"remoteServer": "ws://panel.local:1880/ws/a", "id": "btn_3", "btnlabel": "Lamp"},
		"coordinates": {"column": 2, "row": 1},
		"isInMultiAction": false
	}
}`

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(willAppear))
	require.NoError(t, err)

	assert.Equal(t, EventWillAppear, ev.Event)
	assert.Equal(t, "ctx-1", ev.Context)
	assert.Equal(t, "dev-1", ev.Device)
	assert.Equal(t, "ws://panel.local:1880/ws/a", ev.RemoteServer())
	assert.Equal(t, "btn_3", ev.Settings().ID)
	assert.Equal(t, "Lamp", ev.Settings().Label)
	assert.Equal(t, "2-1", ev.Position())
	assert.False(t, ev.InMultiAction())
	assert.JSONEq(t, willAppear, string(ev.Raw()))
}

func TestParseEventMinimal(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"deviceDidConnect"}`))
	require.NoError(t, err)

	assert.Nil(t, ev.Settings())
	assert.Equal(t, "", ev.RemoteServer())
	assert.Equal(t, "", ev.Position())
	assert.False(t, ev.InMultiAction())
}

func TestParseEventErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `G`},
		{"array", `[1,2]`},
		{"no event", `{"context":"x"}`},
		{"wrong type", `{"event":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent([]byte(tt.data))
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

func TestEventMarshalForwardsRaw(t *testing.T) {
	in := `{"event":"keyDown","payload":{"settings":{"id":"x_1"},"extra":{"a":1}}}`
	ev, err := ParseEvent([]byte(in))
	require.NoError(t, err)

	out, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out), "unknown fields survive forwarding")
}

func TestEventMarshalBuilt(t *testing.T) {
	ev := &Event{
		Event:   EventKeyUp,
		Payload: &Payload{Coordinates: &Coordinates{Column: 0, Row: 3}},
	}
	assert.JSONEq(t, `{"event":"keyUp","payload":{"coordinates":{"column":0,"row":3}}}`, string(ev.Raw()))
	assert.Equal(t, "0-3", ev.Position())
}

func TestOutboundMessages(t *testing.T) {
	data, err := json.Marshal(SetImage("ctx", "images/red"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"setImage","context":"ctx","payload":{"image":"images/red","target":1}}`, string(data))

	data, err = json.Marshal(SetTitle("ctx", "Lamp"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"setTitle","context":"ctx","payload":{"title":"Lamp","target":0,"state":0}}`, string(data))

	data, err = json.Marshal(Registration{Event: "registerPlugin", UUID: "abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"registerPlugin","uuid":"abc"}`, string(data))
}

func TestParseInfo(t *testing.T) {
	info, err := ParseInfo(`{
		"application": {"language": "en", "platform": "mac", "version": "6.4"},
		"plugin": {"uuid": "cz.qro.ws", "version": "1.0"},
		"devices": [{"id": "D1", "name": "Panel", "type": 0, "size": {"columns": 5, "rows": 3}}]
	}`)
	require.NoError(t, err)

	assert.Equal(t, "mac", info.Application.Platform)
	assert.Equal(t, "cz.qro.ws", info.Plugin.UUID)
	require.Len(t, info.Devices, 1)
	assert.Equal(t, 15, info.Devices[0].Keys())

	empty, err := ParseInfo("")
	require.NoError(t, err)
	assert.Empty(t, empty.Devices)

	_, err = ParseInfo("{")
	assert.Error(t, err)
}
