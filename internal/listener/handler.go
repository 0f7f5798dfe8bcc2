package listener

import (
	"net"

	"github.com/google/uuid"

	"echomux/internal/event"
	emerr "echomux/internal/errors"
	"echomux/internal/metrics"
	"echomux/util"
)

// Handler drives one accepted connection to completion: every chunk
// read is written straight back to the peer and then reported.
//
// The Handler owns Conn and Events exclusively; Serve closes both.
type Handler struct {
	Port    int
	ID      uuid.UUID
	Conn    net.Conn
	Events  *event.Sender
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Serve runs the read/echo loop until the peer closes or resets the
// connection, or an I/O error ends it.  A ConnectionClosed event is
// emitted on every exit path; it carries the error for failed exits,
// which Serve also returns.  Nothing is retried.
func (h *Handler) Serve() error {
	defer h.Events.Close()
	defer h.Conn.Close()

	peer := h.Conn.RemoteAddr()
	h.Metrics.ConnectionOpened()
	defer h.Metrics.ConnectionClosed()

	err := h.echo(peer)
	if err != nil {
		h.Metrics.RecordError(err.Error())
		h.Logger.Verbose("%s: %v", peer, err)
	}
	h.send(event.Closed(h.Port, peer, h.ID, err))
	return err
}

func (h *Handler) echo(peer net.Addr) error {
	bufp := util.GetBuf()
	defer util.PutBuf(bufp)
	buf := *bufp

	for {
		n, rerr := h.Conn.Read(buf)
		if n > 0 {
			h.Metrics.BytesReceived(int64(n))
			if _, err := h.Conn.Write(buf[:n]); err != nil {
				return emerr.Wrap("write", peer.String(), err)
			}
			h.Metrics.BytesEchoed(int64(n))
			h.send(event.Received(h.Port, peer, h.ID, buf[:n]))
		}
		if rerr != nil {
			if emerr.IsClosed(rerr) || emerr.IsConnReset(rerr) {
				return nil
			}
			return emerr.Wrap("read", peer.String(), rerr)
		}
	}
}

// send reports a delivery failure but never stops the handler; the
// client keeps getting its echo even after the aggregator has gone.
func (h *Handler) send(ev event.Event) {
	if err := h.Events.Send(ev); err != nil {
		h.Metrics.EventDropped()
		h.Logger.Debug("dropping %T: %v", ev, err)
	}
}
