package plugin

import (
	"github.com/qro-cz/qrows-go/pkg/bitstate"
	"github.com/qro-cz/qrows-go/pkg/streamdeck"
)

// StatusReceived replaces the local state with the remote status and
// marks the display active.
func (p *Plugin) StatusReceived(address string, status uint16) {
	p.previous = p.current
	p.current = bitstate.Encode(status)
	p.debugLog("Status received", "address", address, "status", status, "state", p.current.String())
	p.dimmer.Touch()
}

// ConnectionLost resets the first ResetSlots buttons to the neutral icon,
// whichever connection they belong to.
func (p *Plugin) ConnectionLost(address string) {
	n := min(p.config.ResetSlots, len(p.buttons))
	p.debugLog("Connection lost, resetting display", "address", address, "buttons", n)
	for _, b := range p.buttons[:n] {
		p.send(streamdeck.SetImage(b.Context, p.config.Icons.Reset))
	}
}

// repaint paints every button from the current state. The active look uses
// the highlighted pair and shows labels; the idle look hides them.
func (p *Plugin) repaint(active bool) {
	on, off := p.config.Icons.IdleOn, p.config.Icons.IdleOff
	if active {
		on, off = p.config.Icons.ActiveOn, p.config.Icons.ActiveOff
	}

	for _, b := range p.buttons {
		image := off
		if slot, err := bitstate.ParseSlot(b.ID); err == nil && p.current[slot] {
			image = on
		}
		p.send(streamdeck.SetImage(b.Context, image))

		title := ""
		if active {
			title = b.Label
		}
		p.send(streamdeck.SetTitle(b.Context, title))
	}
}

func (p *Plugin) send(msg streamdeck.Message) {
	if p.host == nil {
		return
	}
	if err := p.host.Send(msg); err != nil {
		p.debugLog("Host send failed", "event", msg.Event, "context", msg.Context, "error", err)
	}
}
