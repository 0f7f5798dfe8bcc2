// Package event defines the records that flow from listeners, handlers
// and the keypress watcher to the single aggregator, and the stream
// that carries them.
//
// Event is a closed sum type: the only implementations are the four
// structs in this file.  Consumers switch on the concrete type.
package event

import (
	"net"
	"time"

	"github.com/google/uuid"
)

// Event is one lifecycle or data occurrence.  At reports the monotonic
// construction time; it is used for elapsed-time display only, never
// for ordering.
type Event interface {
	At() time.Time
	isEvent()
}

// ConnectionEstablished is emitted by a listener once it has accepted
// and dispatched a connection.
type ConnectionEstablished struct {
	Port   int
	Peer   net.Addr
	ConnID uuid.UUID
	Time   time.Time
}

// DataReceived is emitted by a handler after the chunk has been echoed.
// Payload holds exactly the bytes of one read and must not be modified.
type DataReceived struct {
	Port    int
	Peer    net.Addr
	ConnID  uuid.UUID
	Payload []byte
	Time    time.Time
}

// ConnectionClosed is emitted once when a handler finishes.  Err is nil
// when the peer closed or reset the connection.
type ConnectionClosed struct {
	Port   int
	Peer   net.Addr
	ConnID uuid.UUID
	Err    error
	Time   time.Time
}

// ShutdownRequested is emitted by the keypress watcher on the quit key.
type ShutdownRequested struct {
	Time time.Time
}

func (e ConnectionEstablished) At() time.Time { return e.Time }
func (e DataReceived) At() time.Time          { return e.Time }
func (e ConnectionClosed) At() time.Time      { return e.Time }
func (e ShutdownRequested) At() time.Time     { return e.Time }

func (ConnectionEstablished) isEvent() {}
func (DataReceived) isEvent()          {}
func (ConnectionClosed) isEvent()      {}
func (ShutdownRequested) isEvent()     {}

// ── Constructors ─────────────────────────────────────────────────────
//
// Each constructor stamps the event with time.Now(), which carries a
// monotonic clock reading.

// Established builds a ConnectionEstablished event.
func Established(port int, peer net.Addr, id uuid.UUID) ConnectionEstablished {
	return ConnectionEstablished{Port: port, Peer: peer, ConnID: id, Time: time.Now()}
}

// Received builds a DataReceived event holding a private copy of chunk.
func Received(port int, peer net.Addr, id uuid.UUID, chunk []byte) DataReceived {
	payload := make([]byte, len(chunk))
	copy(payload, chunk)
	return DataReceived{Port: port, Peer: peer, ConnID: id, Payload: payload, Time: time.Now()}
}

// Closed builds a ConnectionClosed event.
func Closed(port int, peer net.Addr, id uuid.UUID, err error) ConnectionClosed {
	return ConnectionClosed{Port: port, Peer: peer, ConnID: id, Err: err, Time: time.Now()}
}

// Shutdown builds a ShutdownRequested event.
func Shutdown() ShutdownRequested {
	return ShutdownRequested{Time: time.Now()}
}

// Elapsed returns the time since ev was constructed.
func Elapsed(ev Event) time.Duration {
	return time.Since(ev.At())
}
