// Package config defines the runtime configuration for echomux and
// provides helpers for parsing port lists and ranges.
package config

import (
	"fmt"
	"strconv"
	"strings"

	emerr "echomux/internal/errors"
)

// Payload dump formats accepted by --payload.
const (
	PayloadBytes = "bytes" // [104 105]
	PayloadHex   = "hex"   // hex.Dump layout
	PayloadText  = "text"  // Go-quoted string
)

// Config holds every tuneable for a single echomux session.
type Config struct {
	// ── Listening ────────────────────────────────────────────────────
	Ports []int  // one listener per entry; 0 asks the kernel for a port
	Host  string // bind host, "" for all interfaces

	// ── Reporting ────────────────────────────────────────────────────
	PayloadFormat string
	QueueDepth    int // initial event queue capacity
	Color         bool

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	DryRun  bool
}

// ── Port helpers ─────────────────────────────────────────────────────

// PortRange is an inclusive start–end pair.
type PortRange struct {
	Start int
	End   int
}

// Expand returns every port in the range.
func (pr PortRange) Expand() []int {
	out := make([]int, 0, pr.End-pr.Start+1)
	for p := pr.Start; p <= pr.End; p++ {
		out = append(out, p)
	}
	return out
}

// ParsePortSpec accepts "3000" or "3000-3002".
func ParsePortSpec(spec string) (PortRange, error) {
	spec = strings.TrimSpace(spec)
	if strings.Contains(spec, "-") {
		parts := strings.SplitN(spec, "-", 2)
		start, err := strconv.Atoi(parts[0])
		if err != nil {
			return PortRange{}, fmt.Errorf("invalid port range start %q", parts[0])
		}
		end, err := strconv.Atoi(parts[1])
		if err != nil {
			return PortRange{}, fmt.Errorf("invalid port range end %q", parts[1])
		}
		if start < 1 || end > 65535 || start > end {
			return PortRange{}, fmt.Errorf("invalid port range %d-%d", start, end)
		}
		return PortRange{Start: start, End: end}, nil
	}

	port, err := strconv.Atoi(spec)
	if err != nil {
		return PortRange{}, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return PortRange{}, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return PortRange{Start: port, End: port}, nil
}

// ParsePortList flattens a list of port specs (as produced by a
// comma-separated flag) into individual ports, preserving order.
func ParsePortList(specs []string) ([]int, error) {
	var out []int
	for _, s := range specs {
		if strings.TrimSpace(s) == "" {
			continue
		}
		pr, err := ParsePortSpec(s)
		if err != nil {
			return nil, err
		}
		out = append(out, pr.Expand()...)
	}
	return out, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if len(c.Ports) == 0 {
		return &emerr.ConfigError{
			Field:   "ports",
			Message: "at least one port is required",
			Hint:    "e.g. --ports 3000,3001,3002 or --ports 3000-3002",
		}
	}

	seen := make(map[int]bool, len(c.Ports))
	for _, p := range c.Ports {
		if p < 0 || p > 65535 {
			return &emerr.ConfigError{
				Field:   "ports",
				Value:   p,
				Message: "out of range 1-65535",
				Hint:    "use a port between 1 and 65535",
			}
		}
		// Port 0 (kernel-assigned) may repeat; every other port binds once.
		if p != 0 && seen[p] {
			return &emerr.ConfigError{
				Field:   "ports",
				Value:   p,
				Message: "listed more than once",
				Hint:    "each port accepts exactly one connection; list it once",
			}
		}
		seen[p] = true
	}

	switch c.PayloadFormat {
	case PayloadBytes, PayloadHex, PayloadText:
	default:
		return &emerr.ConfigError{
			Field:   "payload",
			Value:   c.PayloadFormat,
			Message: "unknown payload format",
			Hint:    "choose one of: bytes, hex, text",
		}
	}

	if c.QueueDepth < 1 {
		return &emerr.ConfigError{
			Field:   "queue",
			Value:   c.QueueDepth,
			Message: "must be at least 1",
		}
	}

	return nil
}
