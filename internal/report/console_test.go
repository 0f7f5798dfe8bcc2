package report

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/google/uuid"

	"echomux/config"
	"echomux/internal/event"
)

var peer = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 51234}

func render(t *testing.T, format string, evs ...event.Event) string {
	t.Helper()
	var buf bytes.Buffer
	c := NewConsole(&buf, format, false)
	for _, ev := range evs {
		c.Report(ev)
	}
	return buf.String()
}

func TestConsole_DataReceived(t *testing.T) {
	out := render(t, config.PayloadBytes, event.Received(3000, peer, uuid.New(), []byte("hi")))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasSuffix(lines[0], ": Received 2 bytes from 127.0.0.1:3000") {
		t.Errorf("summary line = %q", lines[0])
	}
	if lines[1] != "Received from port 3000: [104 105]" {
		t.Errorf("payload line = %q", lines[1])
	}
}

func TestConsole_PayloadFormats(t *testing.T) {
	ev := event.Received(3001, peer, uuid.New(), []byte("a\tb"))

	tests := []struct {
		format string
		want   string
	}{
		{config.PayloadBytes, "Received from port 3001: [97 9 98]\n"},
		{config.PayloadText, `Received from port 3001: "a\tb"` + "\n"},
		{config.PayloadHex, "Received from port 3001:\n00000000  61 09 62"},
		{"unknown", "Received from port 3001: [97 9 98]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if out := render(t, tt.format, ev); !strings.Contains(out, tt.want) {
				t.Errorf("output %q should contain %q", out, tt.want)
			}
		})
	}
}

func TestConsole_Lifecycle(t *testing.T) {
	id := uuid.New()
	out := render(t, config.PayloadBytes,
		event.Established(3001, peer, id),
		event.Closed(3001, peer, id, nil),
		event.Closed(3001, peer, id, errors.New("read: boom")),
		event.Shutdown(),
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	want := []string{
		": Connection established from 127.0.0.1:51234 on port 3001",
		": Connection closed from 127.0.0.1:51234 on port 3001",
		": Connection failed from 127.0.0.1:51234 on port 3001: read: boom",
		": Shutdown",
	}
	if len(lines) != len(want) {
		t.Fatalf("want %d lines, got %d:\n%s", len(want), len(lines), out)
	}
	for i, w := range want {
		if !strings.HasSuffix(lines[i], w) {
			t.Errorf("line %d = %q, want suffix %q", i, lines[i], w)
		}
		if !strings.HasPrefix(lines[i], "0.") {
			t.Errorf("line %d = %q should start with elapsed seconds", i, lines[i])
		}
	}
}

func TestConsole_ConnIDs(t *testing.T) {
	id := uuid.New()
	var buf bytes.Buffer
	c := NewConsole(&buf, config.PayloadBytes, false)
	c.ShowConnIDs(true)
	c.Report(event.Established(3000, peer, id))

	if !strings.Contains(buf.String(), "["+id.String()+"]") {
		t.Errorf("connection ID missing from %q", buf.String())
	}
}

func TestConsole_ColorOnNonTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, config.PayloadBytes, true)
	c.Report(event.Shutdown())

	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("non-terminal output should carry no escape sequences: %q", buf.String())
	}
}
