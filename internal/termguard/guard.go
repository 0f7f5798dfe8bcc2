// Package termguard switches a terminal into non-canonical, non-echoing
// input mode and guarantees the previous attributes come back: when the
// holder releases the mode, when a signal ends the process, and when a
// goroutine panics while the mode is active.
//
// The saved attributes are a bit-for-bit snapshot taken with
// golang.org/x/term, so restoring never has to guess which flags were
// originally set.
package termguard

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/term"
)

var (
	// ErrNotTerminal is returned by Acquire when the descriptor is not
	// attached to a terminal (stdin redirected from a file or pipe).
	ErrNotTerminal = errors.New("termguard: not a terminal")

	// ErrAlreadyActive is returned by Acquire while a previous
	// acquisition has not been released.
	ErrAlreadyActive = errors.New("termguard: raw input already active")
)

// Guard owns the terminal mode of one file descriptor.  A nil *Guard
// is valid: Acquire succeeds without touching anything and every other
// method is a no-op.
type Guard struct {
	fd int

	mu    sync.Mutex
	saved *term.State
}

// New returns a Guard for fd (normally int(os.Stdin.Fd())).
func New(fd int) *Guard {
	return &Guard{fd: fd}
}

// Acquire snapshots the current attributes and turns off canonical
// line editing and local echo.  The returned release func restores the
// snapshot; calling it more than once restores only once.
func (g *Guard) Acquire() (release func() error, err error) {
	if g == nil {
		return func() error { return nil }, nil
	}
	if !term.IsTerminal(g.fd) {
		return nil, ErrNotTerminal
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.saved != nil {
		return nil, ErrAlreadyActive
	}

	st, err := term.GetState(g.fd)
	if err != nil {
		return nil, fmt.Errorf("termguard: snapshot: %w", err)
	}
	if err := enterCbreak(g.fd); err != nil {
		return nil, fmt.Errorf("termguard: enter raw input: %w", err)
	}
	g.saved = st

	var once sync.Once
	return func() error {
		var rerr error
		once.Do(func() { rerr = g.restore() })
		return rerr
	}, nil
}

// Active reports whether the terminal is currently held in raw input
// mode by this Guard.
func (g *Guard) Active() bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saved != nil
}

// Rescue restores the saved attributes if raw input is active.  It is
// safe to call from any goroutine at any time, including while another
// goroutine still holds the release func (which then becomes a no-op).
func (g *Guard) Rescue() {
	if g == nil {
		return
	}
	_ = g.restore()
}

// RecoverPanic must be deferred directly at the top of every goroutine
// that can run while raw input is active:
//
//	go func() {
//		defer guard.RecoverPanic()
//		...
//	}()
//
// It restores the terminal and re-panics so the runtime's normal crash
// report is printed on a usable terminal.
func (g *Guard) RecoverPanic() {
	r := recover()
	if r == nil {
		return
	}
	g.Rescue()
	panic(r)
}

func (g *Guard) restore() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.saved == nil {
		return nil
	}
	st := g.saved
	g.saved = nil
	if err := term.Restore(g.fd, st); err != nil {
		return fmt.Errorf("termguard: restore: %w", err)
	}
	return nil
}
