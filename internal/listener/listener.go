// Package listener binds the configured ports.  Each Listener accepts
// exactly one connection, hands it to a Handler running on its own
// goroutine and then stops listening, so a later connection attempt on
// the same port is refused by the kernel.
//
// A goroutine per listener and per connection is only acceptable
// because at most one connection per port is ever served.  Serving
// more would need a bounded worker pool.
package listener

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"

	"echomux/internal/event"
	emerr "echomux/internal/errors"
	"echomux/internal/metrics"
	"echomux/internal/termguard"
	"echomux/util"
)

// Listener owns one listening socket.
type Listener struct {
	Host    string // "" binds all interfaces
	Port    int    // 0 lets the kernel choose
	Logger  *util.Logger
	Metrics *metrics.Collector
	Guard   *termguard.Guard // rescued if a handler goroutine panics

	ln   net.Listener
	port int // actually bound port
}

// Bind opens the listening socket.  A bind failure is a configuration
// error for this port and is not retried.
func (l *Listener) Bind() error {
	addr := util.FormatAddr(l.Host, l.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return emerr.Wrap("listen", addr, err)
	}
	port, err := util.PortOf(ln.Addr())
	if err != nil {
		ln.Close()
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	l.ln = ln
	l.port = port
	l.Metrics.ListenerStarted()
	l.Logger.Verbose("listening on %s (tcp)", ln.Addr())
	return nil
}

// Addr returns the bound address, or nil before Bind.
func (l *Listener) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// BoundPort returns the port the socket is actually bound to.
func (l *Listener) BoundPort() int { return l.port }

// Serve accepts a single connection, emits ConnectionEstablished and
// starts its Handler, then closes the listening socket.  Serve takes
// ownership of events and releases it before returning.  If ctx ends
// before a connection arrives Serve returns nil.
func (l *Listener) Serve(ctx context.Context, events *event.Sender) error {
	defer events.Close()
	if l.ln == nil {
		return fmt.Errorf("serve port %d: not bound", l.Port)
	}
	defer l.Metrics.ListenerStopped()
	defer l.ln.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.ln.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return emerr.Wrap("accept", l.ln.Addr().String(), err)
		}

		peer := conn.RemoteAddr()
		if peer == nil {
			l.Logger.Warn("dropping connection with unresolvable peer address")
			conn.Close()
			continue
		}

		handlerEvents, err := events.Clone()
		if err != nil {
			conn.Close()
			return fmt.Errorf("port %d: %w", l.port, err)
		}

		id := uuid.New()
		l.Logger.Verbose("connection %s from %s", id, peer)

		// Established goes on the stream before the handler can emit
		// anything, so the aggregator always sees it first.
		if err := events.Send(event.Established(l.port, peer, id)); err != nil {
			l.Metrics.EventDropped()
			l.Logger.Error("sending connection established for %s: %v", peer, err)
		}

		h := &Handler{
			Port:    l.port,
			ID:      id,
			Conn:    conn,
			Events:  handlerEvents,
			Logger:  l.Logger,
			Metrics: l.Metrics,
		}
		go func() {
			defer l.Guard.RecoverPanic()
			h.Serve() //nolint:errcheck // reported through ConnectionClosed
		}()

		l.Logger.Verbose("port %d served its connection; no longer accepting", l.port)
		return nil
	}
}
