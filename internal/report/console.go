// Package report prints already-built events for a human watching the
// console.  It makes no decisions: ordering, termination and filtering
// belong to the aggregator.
package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"echomux/config"
	"echomux/internal/event"
	"echomux/util"
)

// Console renders events as lines on an io.Writer.  Styling is decided
// by a lipgloss renderer bound to that writer, so output that is not a
// terminal stays plain.
type Console struct {
	w       io.Writer
	format  string
	color   bool
	connIDs bool

	mu sync.Mutex

	stamp  lipgloss.Style
	open   lipgloss.Style
	data   lipgloss.Style
	closed lipgloss.Style
	failed lipgloss.Style
	stop   lipgloss.Style
}

// NewConsole returns a Console writing to w.  format is one of the
// config.Payload* constants; an unknown value falls back to bytes.
func NewConsole(w io.Writer, format string, color bool) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:      w,
		format: format,
		color:  color,
		stamp:  r.NewStyle().Faint(true),
		open:   r.NewStyle().Foreground(lipgloss.Color("2")),
		data:   r.NewStyle().Foreground(lipgloss.Color("6")),
		closed: r.NewStyle().Foreground(lipgloss.Color("3")),
		failed: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		stop:   r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
	}
}

// ShowConnIDs appends each connection's ID to its lines.
func (c *Console) ShowConnIDs(on bool) { c.connIDs = on }

// Report writes ev.  It is safe for concurrent use, although the
// aggregator only ever calls it from one goroutine.
func (c *Console) Report(ev event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.paint(c.stamp, elapsed(event.Elapsed(ev)))

	switch e := ev.(type) {
	case event.ConnectionEstablished:
		fmt.Fprintf(c.w, "%s: %s from %s on port %d%s\n",
			ts, c.paint(c.open, "Connection established"), e.Peer, e.Port, c.id(e.ConnID.String()))

	case event.DataReceived:
		fmt.Fprintf(c.w, "%s: %s %d bytes from %s:%d%s\n",
			ts, c.paint(c.data, "Received"), len(e.Payload), util.PeerHost(e.Peer), e.Port, c.id(e.ConnID.String()))
		c.payload(e.Port, e.Payload)

	case event.ConnectionClosed:
		if e.Err != nil {
			fmt.Fprintf(c.w, "%s: %s from %s on port %d: %v%s\n",
				ts, c.paint(c.failed, "Connection failed"), e.Peer, e.Port, e.Err, c.id(e.ConnID.String()))
			return
		}
		fmt.Fprintf(c.w, "%s: %s from %s on port %d%s\n",
			ts, c.paint(c.closed, "Connection closed"), e.Peer, e.Port, c.id(e.ConnID.String()))

	case event.ShutdownRequested:
		fmt.Fprintf(c.w, "%s: %s\n", ts, c.paint(c.stop, "Shutdown"))

	default:
		fmt.Fprintf(c.w, "%s: %T\n", ts, ev)
	}
}

func (c *Console) payload(port int, p []byte) {
	switch c.format {
	case config.PayloadHex:
		fmt.Fprintf(c.w, "Received from port %d:\n%s", port, hex.Dump(p))
	case config.PayloadText:
		fmt.Fprintf(c.w, "Received from port %d: %s\n", port, strconv.Quote(string(p)))
	default:
		fmt.Fprintf(c.w, "Received from port %d: %v\n", port, p)
	}
}

func (c *Console) paint(s lipgloss.Style, text string) string {
	if !c.color {
		return text
	}
	return s.Render(text)
}

func (c *Console) id(s string) string {
	if !c.connIDs {
		return ""
	}
	return " [" + s + "]"
}

func elapsed(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64) + "s"
}
