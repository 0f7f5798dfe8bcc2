// Package aggregator is the single consumer of the event stream.  It
// hands every event to a Reporter in delivery order and stops on the
// first shutdown request.
package aggregator

import (
	"context"
	"errors"

	"echomux/internal/event"
	"echomux/util"
)

// Reporter prints one event.  It is called from a single goroutine.
type Reporter interface {
	Report(ev event.Event)
}

// Outcome says why Run returned.
type Outcome int

const (
	// Shutdown means a ShutdownRequested event was rendered.
	Shutdown Outcome = iota
	// Exhausted means every producer released the stream.
	Exhausted
	// Cancelled means the context ended first.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Shutdown:
		return "shutdown"
	case Exhausted:
		return "exhausted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Aggregator drains a Receiver into a Reporter.
type Aggregator struct {
	Reporter Reporter
	Logger   *util.Logger
}

// Run renders events strictly in the order received, one at a time,
// until a ShutdownRequested event has been rendered, the stream is
// exhausted, or ctx ends.  Events queued behind a shutdown are not
// rendered.  Run closes rx before returning, which discards anything
// still queued and makes later sends fail.
func (a *Aggregator) Run(ctx context.Context, rx *event.Receiver) (Outcome, error) {
	defer rx.Close()

	rendered := 0
	for {
		ev, err := rx.Recv(ctx)
		switch {
		case errors.Is(err, event.ErrStreamClosed):
			a.Logger.Verbose("all producers finished after %d events", rendered)
			return Exhausted, nil
		case err != nil:
			a.Logger.Verbose("stopped after %d events: %v", rendered, err)
			return Cancelled, err
		}

		a.Reporter.Report(ev)
		rendered++

		if _, ok := ev.(event.ShutdownRequested); ok {
			a.Logger.Verbose("shutdown requested after %d events", rendered)
			return Shutdown, nil
		}
	}
}
