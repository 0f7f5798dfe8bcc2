package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func recvTimeout(t *testing.T, rx *Receiver) (Event, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return rx.Recv(ctx)
}

func TestStream_FIFOPerProducer(t *testing.T) {
	tx, rx := NewStream(4)
	defer rx.Close()

	const producers, perProducer = 4, 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		ptx, err := tx.Clone()
		if err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			defer ptx.Close()
			for i := 0; i < perProducer; i++ {
				if err := ptx.Send(Received(port, nil, uuid.Nil, []byte{byte(i)})); err != nil {
					t.Errorf("send: %v", err)
					return
				}
			}
		}(p)
	}
	tx.Close()

	next := make([]int, producers)
	total := 0
	for {
		ev, err := recvTimeout(t, rx)
		if errors.Is(err, ErrStreamClosed) {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		d := ev.(DataReceived)
		if int(d.Payload[0]) != next[d.Port] {
			t.Fatalf("producer %d: got seq %d, want %d", d.Port, d.Payload[0], next[d.Port])
		}
		next[d.Port]++
		total++
	}
	wg.Wait()

	if total != producers*perProducer {
		t.Errorf("received %d events, want %d", total, producers*perProducer)
	}
}

func TestStream_ClosesWhenLastSenderReleased(t *testing.T) {
	tx, rx := NewStream(8)
	defer rx.Close()

	other, err := tx.Clone()
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Send(Shutdown()); err != nil {
		t.Fatal(err)
	}
	tx.Close()
	tx.Close() // idempotent

	if _, err := recvTimeout(t, rx); err != nil {
		t.Fatalf("buffered event lost: %v", err)
	}

	// One sender is still alive: Recv must block, not report closure.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	_, err = rx.Recv(ctx)
	cancel()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while a sender is alive, got %v", err)
	}

	other.Close()
	if _, err := recvTimeout(t, rx); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("expected ErrStreamClosed, got %v", err)
	}
}

func TestStream_SendAfterReceiverClosed(t *testing.T) {
	tx, rx := NewStream(1)
	defer tx.Close()

	rx.Close()
	rx.Close() // idempotent

	if err := tx.Send(Shutdown()); !errors.Is(err, ErrReceiverClosed) {
		t.Fatalf("expected ErrReceiverClosed, got %v", err)
	}
}

func TestStream_SendNeverWaitsForReceiver(t *testing.T) {
	tx, rx := NewStream(1)
	defer rx.Close()

	const n = 10000
	done := make(chan error, 1)
	go func() {
		for i := 0; i < n; i++ {
			if err := tx.Send(Received(3000, nil, uuid.Nil, []byte{byte(i)})); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("send: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on an undrained stream")
	}
	if got := rx.Len(); got != n {
		t.Fatalf("Len() = %d, want %d", got, n)
	}

	tx.Close()
	for i := 0; i < n; i++ {
		ev, err := recvTimeout(t, rx)
		if err != nil {
			t.Fatalf("recv %d: %v", i, err)
		}
		if got := ev.(DataReceived).Payload[0]; got != byte(i) {
			t.Fatalf("event %d: got seq %d", i, got)
		}
	}
	if _, err := recvTimeout(t, rx); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("expected ErrStreamClosed, got %v", err)
	}
}

func TestStream_InterleavedSendRecv(t *testing.T) {
	tx, rx := NewStream(1)
	defer rx.Close()

	// Keep a few events queued at all times so the consumed prefix is
	// compacted rather than fully drained.
	sent, got := 0, 0
	for round := 0; round < 2000; round++ {
		for k := 0; k < 3; k++ {
			if err := tx.Send(Received(3000, nil, uuid.Nil, []byte{byte(sent)})); err != nil {
				t.Fatal(err)
			}
			sent++
		}
		for k := 0; k < 2; k++ {
			ev, err := recvTimeout(t, rx)
			if err != nil {
				t.Fatal(err)
			}
			if seq := ev.(DataReceived).Payload[0]; seq != byte(got) {
				t.Fatalf("event %d: got seq %d", got, seq)
			}
			got++
		}
	}
	if rx.Len() != sent-got {
		t.Fatalf("Len() = %d, want %d", rx.Len(), sent-got)
	}
}

func TestStream_RecvWakesOnLaterSend(t *testing.T) {
	tx, rx := NewStream(1)
	defer rx.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		tx.Send(Shutdown())
		tx.Close()
	}()

	ev, err := recvTimeout(t, rx)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if _, ok := ev.(ShutdownRequested); !ok {
		t.Fatalf("got %T, want ShutdownRequested", ev)
	}
	if _, err := recvTimeout(t, rx); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("expected ErrStreamClosed, got %v", err)
	}
}

func TestStream_ReceiverCloseDiscardsQueued(t *testing.T) {
	tx, rx := NewStream(1)
	defer tx.Close()

	for i := 0; i < 3; i++ {
		if err := tx.Send(Shutdown()); err != nil {
			t.Fatal(err)
		}
	}
	rx.Close()

	if got := rx.Len(); got != 0 {
		t.Errorf("Len() after Close = %d, want 0", got)
	}
	if err := tx.Send(Shutdown()); !errors.Is(err, ErrReceiverClosed) {
		t.Fatalf("expected ErrReceiverClosed, got %v", err)
	}
}

func TestSender_UseAfterClose(t *testing.T) {
	tx, rx := NewStream(1)
	defer rx.Close()

	keep, _ := tx.Clone()
	defer keep.Close()
	tx.Close()

	if err := tx.Send(Shutdown()); !errors.Is(err, ErrSenderClosed) {
		t.Errorf("Send: expected ErrSenderClosed, got %v", err)
	}
	if _, err := tx.Clone(); !errors.Is(err, ErrSenderClosed) {
		t.Errorf("Clone: expected ErrSenderClosed, got %v", err)
	}
}
