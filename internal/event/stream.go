package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrReceiverClosed is returned by Send once the aggregator has
	// stopped draining.
	ErrReceiverClosed = errors.New("event stream: receiver closed")

	// ErrSenderClosed is returned when a released Sender is used again.
	ErrSenderClosed = errors.New("event stream: sender closed")

	// ErrStreamClosed is returned by Recv after every Sender has been
	// released and all queued events have been delivered.
	ErrStreamClosed = errors.New("event stream: all senders closed")
)

// compactAfter is how many consumed slots may sit at the front of the
// queue before the live tail is moved down.
const compactAfter = 256

// stream is the shared state behind one Receiver and any number of
// Senders.  The queue is unbounded so a slow consumer never stalls a
// producer.  wake holds at most one pending wakeup for the consumer.
type stream struct {
	mu      sync.Mutex
	queue   []Event
	head    int
	senders int
	drained bool // every Sender released
	gone    bool // Receiver released

	wake chan struct{}
}

// NewStream returns the two halves of a multi-producer, single-consumer
// event stream.  capacity only sizes the initial queue; Send never
// blocks on a full queue.
func NewStream(capacity int) (*Sender, *Receiver) {
	if capacity < 1 {
		capacity = 1
	}
	st := &stream{
		queue:   make([]Event, 0, capacity),
		senders: 1,
		wake:    make(chan struct{}, 1),
	}
	return &Sender{st: st}, &Receiver{st: st}
}

func (st *stream) notify() {
	select {
	case st.wake <- struct{}{}:
	default:
	}
}

// pop removes the oldest event.  Called with mu held.
func (st *stream) pop() (Event, bool) {
	if st.head == len(st.queue) {
		return nil, false
	}
	ev := st.queue[st.head]
	st.queue[st.head] = nil
	st.head++
	switch {
	case st.head == len(st.queue):
		st.queue = st.queue[:0]
		st.head = 0
	case st.head >= compactAfter && st.head*2 >= len(st.queue):
		n := copy(st.queue, st.queue[st.head:])
		clear(st.queue[n:])
		st.queue = st.queue[:n]
		st.head = 0
	}
	return ev, true
}

// ── Sender ───────────────────────────────────────────────────────────

// Sender is one producer's handle.  Each goroutine that produces events
// owns its own Sender (see Clone) and releases it with Close when it
// stops producing.  A single Sender must not be used concurrently with
// its own Close.
type Sender struct {
	st     *stream
	closed atomic.Bool
}

// Clone returns a new Sender on the same stream.
func (s *Sender) Clone() (*Sender, error) {
	if s.closed.Load() {
		return nil, ErrSenderClosed
	}
	s.st.mu.Lock()
	s.st.senders++
	s.st.mu.Unlock()
	return &Sender{st: s.st}, nil
}

// Send queues ev in FIFO order relative to every other Send on the
// stream.  It never waits for the consumer and fails once the receiver
// has been closed.
func (s *Sender) Send(ev Event) error {
	if s.closed.Load() {
		return ErrSenderClosed
	}
	st := s.st
	st.mu.Lock()
	if st.gone {
		st.mu.Unlock()
		return ErrReceiverClosed
	}
	st.queue = append(st.queue, ev)
	st.mu.Unlock()
	st.notify()
	return nil
}

// Close releases this Sender.  Releasing the last Sender closes the
// stream.  Close is idempotent.
func (s *Sender) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	st := s.st
	st.mu.Lock()
	st.senders--
	last := st.senders == 0
	if last {
		st.drained = true
	}
	st.mu.Unlock()
	if last {
		st.notify()
	}
}

// ── Receiver ─────────────────────────────────────────────────────────

// Receiver is the single consumer's handle.  Recv must not be called
// from more than one goroutine.
type Receiver struct {
	st *stream
}

// Recv blocks for the next event.  It returns ErrStreamClosed once all
// Senders are released and the queue is empty, or ctx.Err() if ctx
// ends first.
func (r *Receiver) Recv(ctx context.Context) (Event, error) {
	st := r.st
	for {
		st.mu.Lock()
		ev, ok := st.pop()
		drained := st.drained
		st.mu.Unlock()
		if ok {
			return ev, nil
		}
		if drained {
			return nil, ErrStreamClosed
		}
		select {
		case <-st.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len reports how many events are queued and not yet received.
func (r *Receiver) Len() int {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return len(r.st.queue) - r.st.head
}

// Close marks the receiver as gone.  Queued events are discarded and
// future Sends fail with ErrReceiverClosed.  Close is idempotent.
func (r *Receiver) Close() {
	st := r.st
	st.mu.Lock()
	st.gone = true
	clear(st.queue)
	st.queue = st.queue[:0]
	st.head = 0
	st.mu.Unlock()
}
