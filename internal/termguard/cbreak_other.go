//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package termguard

import "golang.org/x/term"

// Platforms without a termios ioctl we can drive directly fall back to
// full raw mode.  The snapshot taken in Acquire still restores exactly.
func enterCbreak(fd int) error {
	_, err := term.MakeRaw(fd)
	return err
}
