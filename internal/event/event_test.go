package event

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestReceived_CopiesPayload(t *testing.T) {
	buf := []byte("hi there")
	ev := Received(3000, &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5000}, uuid.New(), buf[:2])

	buf[0] = 'X'
	if !bytes.Equal(ev.Payload, []byte("hi")) {
		t.Errorf("payload = %q, want %q", ev.Payload, "hi")
	}
	if cap(ev.Payload) != 2 {
		t.Errorf("payload cap = %d, want exactly the read length", cap(ev.Payload))
	}
}

func TestConstructors_StampTime(t *testing.T) {
	before := time.Now()
	peer := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5000}
	id := uuid.New()

	events := []Event{
		Established(3000, peer, id),
		Received(3000, peer, id, []byte("x")),
		Closed(3000, peer, id, nil),
		Shutdown(),
	}
	for _, ev := range events {
		if ev.At().Before(before) {
			t.Errorf("%T stamped before construction", ev)
		}
		if Elapsed(ev) < 0 {
			t.Errorf("%T has negative elapsed time", ev)
		}
	}
}

func TestEvent_Exhaustive(t *testing.T) {
	peer := &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 1}
	id := uuid.New()

	names := map[string]bool{}
	for _, ev := range []Event{
		Established(1, peer, id),
		Received(1, peer, id, nil),
		Closed(1, peer, id, nil),
		Shutdown(),
	} {
		switch ev.(type) {
		case ConnectionEstablished:
			names["established"] = true
		case DataReceived:
			names["data"] = true
		case ConnectionClosed:
			names["closed"] = true
		case ShutdownRequested:
			names["shutdown"] = true
		default:
			t.Fatalf("unexpected event type %T", ev)
		}
	}
	if len(names) != 4 {
		t.Errorf("saw %d distinct variants, want 4", len(names))
	}
}
