// Package interactive provides the interactive command-line interface
// for qrows-console.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/qro-cz/qrows-go/pkg/bitstate"
	"github.com/qro-cz/qrows-go/pkg/connection"
	"github.com/qro-cz/qrows-go/pkg/discovery"
	"github.com/qro-cz/qrows-go/pkg/eventloop"
	"github.com/qro-cz/qrows-go/pkg/plugin"
	"github.com/qro-cz/qrows-go/pkg/streamdeck"
)

// Console drives a Plugin from typed commands, standing in for the host
// application. Display updates the plugin would send to the host are
// printed instead.
type Console struct {
	loop     *eventloop.Loop
	plugin   *plugin.Plugin
	browser  discovery.Browser
	out      io.Writer
	rl       *readline.Instance
	contexts int
}

// New creates a console reading from the terminal. configure receives the
// terminal writer so that log output does not break the prompt.
func New(loop *eventloop.Loop, browser discovery.Browser, configure func(out io.Writer) plugin.Config) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "qrows> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := newConsole(loop, configure(rl.Stdout()), browser, rl.Stdout())
	c.rl = rl
	return c, nil
}

func newConsole(loop *eventloop.Loop, cfg plugin.Config, browser discovery.Browser, out io.Writer) *Console {
	c := &Console{
		loop:    loop,
		browser: browser,
		out:     &lockedWriter{w: out},
	}
	if cfg.OnConnectionState == nil {
		cfg.OnConnectionState = func(address string, old, next connection.State) {
			fmt.Fprintf(c.out, "%s: %s -> %s\n", address, old, next)
		}
	}
	if cfg.OnReconnecting == nil {
		cfg.OnReconnecting = func(address string, attempt int, delay time.Duration) {
			fmt.Fprintf(c.out, "%s: reconnect attempt %d in %v\n", address, attempt, delay)
		}
	}
	c.plugin = plugin.New(loop, printHost{out: c.out}, cfg)
	return c
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.Execute(ctx, line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Close shuts the plugin down on the loop.
func (c *Console) Close(ctx context.Context) error {
	return c.loop.Do(ctx, c.plugin.Close)
}

// Execute runs one command line. It reports whether the console should
// exit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "appear", "a":
		c.cmdAppear(ctx, args)
	case "disappear", "d":
		c.cmdDisappear(ctx, args)
	case "settings", "s":
		c.cmdSettings(ctx, args)
	case "press", "p":
		c.cmdPress(ctx, args)
	case "multi", "m":
		c.cmdMulti(ctx, args)
	case "status", "st":
		c.cmdStatus(ctx)
	case "discover", "disc":
		c.cmdDiscover(ctx)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
qrows Console Commands:
  Buttons:
    appear <address> <col> <row> <id> [label]  - Button appears on the panel
    disappear <address> <col> <row>            - Button disappears
    settings <address> <col> <row>             - Button settings changed
    press <address> <id>                       - Press a button (sends bank command)
    multi <address> <id>                       - Press inside a multi-action (one-shot send)

  Inspection:
    status             - Show connections and button state
    discover           - Browse the network for remote servers

  General:
    help               - Show this help
    quit               - Exit console

  Button ids name the slot after the underscore, e.g. btn_3.`)
}

// do runs fn on the plugin loop and reports loop errors.
func (c *Console) do(ctx context.Context, fn func()) bool {
	if err := c.loop.Do(ctx, fn); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return false
	}
	return true
}

func parseCoordinates(col, row string) (*streamdeck.Coordinates, error) {
	x, err := strconv.Atoi(col)
	if err != nil {
		return nil, fmt.Errorf("invalid column %q", col)
	}
	y, err := strconv.Atoi(row)
	if err != nil {
		return nil, fmt.Errorf("invalid row %q", row)
	}
	return &streamdeck.Coordinates{Column: x, Row: y}, nil
}

func (c *Console) cmdAppear(ctx context.Context, args []string) {
	if len(args) < 4 {
		fmt.Fprintln(c.out, "Usage: appear <address> <col> <row> <id> [label]")
		return
	}
	coords, err := parseCoordinates(args[1], args[2])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if _, err := bitstate.ParseSlot(args[3]); err != nil {
		fmt.Fprintf(c.out, "Warning: %s: %v (button will always show off)\n", args[3], err)
	}

	c.contexts++
	ev := &streamdeck.Event{
		Event:   streamdeck.EventWillAppear,
		Context: fmt.Sprintf("console-%d", c.contexts),
		Device:  "console",
		Payload: &streamdeck.Payload{
			Settings: &streamdeck.Settings{
				RemoteServer: args[0],
				ID:           args[3],
				Label:        strings.Join(args[4:], " "),
			},
			Coordinates: coords,
		},
	}
	if c.do(ctx, func() { c.plugin.HandleEvent(ev) }) {
		fmt.Fprintf(c.out, "Button %s at %s registered as %s\n", args[3], coords, ev.Context)
	}
}

func (c *Console) cmdDisappear(ctx context.Context, args []string) {
	c.lifecycle(ctx, streamdeck.EventWillDisappear, "disappear", args)
}

func (c *Console) cmdSettings(ctx context.Context, args []string) {
	c.lifecycle(ctx, streamdeck.EventDidReceiveSettings, "settings", args)
}

func (c *Console) lifecycle(ctx context.Context, event, name string, args []string) {
	if len(args) < 3 {
		fmt.Fprintf(c.out, "Usage: %s <address> <col> <row>\n", name)
		return
	}
	coords, err := parseCoordinates(args[1], args[2])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	ev := &streamdeck.Event{
		Event: event,
		Payload: &streamdeck.Payload{
			Settings:    &streamdeck.Settings{RemoteServer: args[0]},
			Coordinates: coords,
		},
	}
	c.do(ctx, func() { c.plugin.HandleEvent(ev) })
}

func (c *Console) cmdPress(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: press <address> <id>")
		return
	}
	var (
		sent    bool
		current bitstate.State
	)
	if !c.do(ctx, func() {
		sent = c.plugin.Press(args[0], args[1])
		current = c.plugin.Current()
	}) {
		return
	}
	if !sent {
		fmt.Fprintln(c.out, "Not sent (connection not open or invalid id)")
		return
	}
	fmt.Fprintf(c.out, "Sent X/0/%d -> state %s\n", bitstate.Decode(current), current)
}

func (c *Console) cmdMulti(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: multi <address> <id>")
		return
	}
	ev := &streamdeck.Event{
		Event: streamdeck.EventKeyUp,
		Payload: &streamdeck.Payload{
			Settings:        &streamdeck.Settings{RemoteServer: args[0], ID: args[1]},
			IsInMultiAction: true,
		},
	}
	if c.do(ctx, func() { c.plugin.HandleEvent(ev) }) {
		fmt.Fprintln(c.out, "One-shot send queued")
	}
}

func (c *Console) cmdStatus(ctx context.Context) {
	var b strings.Builder
	c.do(ctx, func() {
		reg := c.plugin.Registry()
		fmt.Fprintf(&b, "Connections: %d\n", reg.Len())
		for _, addr := range reg.Addresses() {
			conn, _ := reg.Connection(addr)
			fmt.Fprintf(&b, "  %s [%s] positions=%v reconnects=%d\n",
				addr, conn.State(), conn.Positions(), conn.Reconnects())
		}
		current := c.plugin.Current()
		fmt.Fprintf(&b, "State:    %s (%d)\n", current, bitstate.Decode(current))
		fmt.Fprintf(&b, "Previous: %s\n", c.plugin.Previous())
		fmt.Fprintf(&b, "Display:  %s\n", c.plugin.DisplayState())
		fmt.Fprintf(&b, "Buttons:  %d\n", len(c.plugin.Buttons()))
	})
	fmt.Fprint(c.out, b.String())
}

func (c *Console) cmdDiscover(ctx context.Context) {
	if c.browser == nil {
		fmt.Fprintln(c.out, "Discovery disabled")
		return
	}
	fmt.Fprintln(c.out, "Browsing...")
	services, err := c.browser.Lookup(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if len(services) == 0 {
		fmt.Fprintln(c.out, "No remote servers found")
		return
	}
	for _, svc := range services {
		url, err := svc.URL()
		if err != nil {
			continue
		}
		fmt.Fprintf(c.out, "  %-24s %s\n", svc.Name, url)
	}
}

// printHost prints display updates instead of sending them to a host.
type printHost struct {
	out io.Writer
}

func (h printHost) Send(msg any) error {
	m, ok := msg.(streamdeck.Message)
	if !ok {
		return nil
	}
	switch p := m.Payload.(type) {
	case streamdeck.ImagePayload:
		fmt.Fprintf(h.out, "[%s] image %s\n", m.Context, p.Image)
	case streamdeck.TitlePayload:
		if p.Title != "" {
			fmt.Fprintf(h.out, "[%s] title %q\n", m.Context, p.Title)
		}
	}
	return nil
}

// lockedWriter serializes writes from the loop and the command reader.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
