// Package keypress watches the controlling terminal for single
// keystrokes: 'q' requests shutdown and '?' prints a short help text.
package keypress

import (
	"errors"
	"fmt"
	"io"
	"os"

	"echomux/internal/event"
	"echomux/internal/termguard"
	"echomux/util"
)

const (
	KeyQuit = 'q'
	KeyHelp = '?'
)

// HelpText is printed when KeyHelp is pressed.
const HelpText = "Press 'q' to quit, '?' for this help\n"

// Watcher reads one byte at a time from In.  Nil In/Out default to
// os.Stdin/os.Stdout; a nil Guard reads without changing terminal mode.
type Watcher struct {
	In     io.Reader
	Out    io.Writer
	Guard  *termguard.Guard
	Logger *util.Logger
}

func (w *Watcher) in() io.Reader {
	if w.In != nil {
		return w.In
	}
	return os.Stdin
}

func (w *Watcher) out() io.Writer {
	if w.Out != nil {
		return w.Out
	}
	return os.Stdout
}

// Run switches the terminal to raw input, then blocks reading keys
// until the quit key is pressed or input ends.  The previous terminal
// mode is restored before Run returns, whatever ends the loop.  Run
// takes ownership of events and releases it before returning.
//
// End of input (stdin closed or redirected from an exhausted file)
// stops the watcher without requesting shutdown.
func (w *Watcher) Run(events *event.Sender) error {
	defer events.Close()

	release, err := w.Guard.Acquire()
	switch {
	case errors.Is(err, termguard.ErrNotTerminal):
		w.Logger.Verbose("stdin is not a terminal; keys are read line-buffered")
	case err != nil:
		w.Logger.Warn("cannot switch terminal to raw input: %v", err)
	default:
		defer func() {
			if err := release(); err != nil {
				w.Logger.Error("%v", err)
			}
		}()
	}

	in, out := w.in(), w.out()
	key := make([]byte, 1)
	for {
		n, err := in.Read(key)
		if n == 1 {
			switch key[0] {
			case KeyQuit:
				if err := events.Send(event.Shutdown()); err != nil {
					return fmt.Errorf("keypress: request shutdown: %w", err)
				}
				return nil
			case KeyHelp:
				fmt.Fprint(out, HelpText)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				w.Logger.Verbose("input closed; keypress watcher stopping")
				return nil
			}
			return fmt.Errorf("keypress: read: %w", err)
		}
	}
}
