package plugin

import (
	"github.com/qro-cz/qrows-go/pkg/bitstate"
	"github.com/qro-cz/qrows-go/pkg/connection"
	"github.com/qro-cz/qrows-go/pkg/streamdeck"
)

// HandleMessage decodes and handles one host message. Malformed messages
// are logged and dropped.
func (p *Plugin) HandleMessage(data []byte) {
	ev, err := streamdeck.ParseEvent(data)
	if err != nil {
		p.debugLog("HandleMessage: dropped", "error", err)
		return
	}
	p.HandleEvent(ev)
}

// HandleEvent routes a host event.
//
// Buttons inside a multi-action have no panel position, so their
// lifecycle events do not touch the registry; their key events are sent
// once on a throwaway socket instead.
func (p *Plugin) HandleEvent(ev *streamdeck.Event) {
	multi := ev.InMultiAction()

	switch ev.Event {
	case streamdeck.EventDidReceiveSettings:
		if !multi {
			p.registry.Subscribe(ev.RemoteServer(), ev.Position(), false)
		}

	case streamdeck.EventWillAppear:
		if multi {
			return
		}
		p.addButton(ev)
		if s := ev.Settings(); s != nil && s.RemoteServer != "" {
			p.registry.Subscribe(s.RemoteServer, ev.Position(), true)
		}

	case streamdeck.EventWillDisappear:
		if !multi {
			p.registry.Unsubscribe(ev.RemoteServer(), ev.Position(), ev.Raw())
		}

	default:
		s := ev.Settings()
		if s == nil {
			return
		}
		if multi {
			p.dispatcher.FireOnce(s.RemoteServer, ev)
			return
		}
		p.Press(s.RemoteServer, s.ID)
	}
}

// Press selects the slot named by buttonID on the remote server at address.
// The built state replaces the local state and the bank command is sent.
// It reports whether a command was written; nothing changes when the
// connection is not open or the id names no slot.
func (p *Plugin) Press(address, buttonID string) bool {
	c, ok := p.registry.Connection(address)
	if !ok || c.State() != connection.StateOpen {
		p.debugLog("Press: connection not open", "address", address, "id", buttonID)
		return false
	}

	slot, err := bitstate.ParseSlot(buttonID)
	if err != nil {
		p.debugLog("Press: dropped", "id", buttonID, "error", err)
		return false
	}

	next, cmd, err := bitstate.BuildCommand(p.current, slot)
	if err != nil {
		p.debugLog("Press: dropped", "id", buttonID, "error", err)
		return false
	}
	p.current = next
	return p.registry.SendBankCommand(address, cmd)
}

func (p *Plugin) addButton(ev *streamdeck.Event) {
	b := Button{Context: ev.Context, Device: ev.Device}
	if s := ev.Settings(); s != nil {
		b.ID = s.ID
		b.Label = s.Label
	}
	p.buttons = append(p.buttons, b)
	p.debugLog("Button registered", "id", b.ID, "context", b.Context, "count", len(p.buttons))
}
