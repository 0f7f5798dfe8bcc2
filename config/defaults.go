package config

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// between CLI flags and programmatic construction in tests.

const (
	// DefaultPortSpec is the set of ports bound when --ports is absent.
	DefaultPortSpec = "3000-3002"

	// DefaultBindHost binds every interface.
	DefaultBindHost = ""

	// DefaultPayloadFormat renders payloads as a decimal byte list.
	DefaultPayloadFormat = PayloadBytes

	// DefaultQueueDepth sizes the aggregation queue up front.  The
	// queue grows past it as needed; producers never wait on it.
	DefaultQueueDepth = 64
)

// Defaults returns a Config populated with every default value.
func Defaults() *Config {
	return &Config{
		Ports:         []int{3000, 3001, 3002},
		Host:          DefaultBindHost,
		PayloadFormat: DefaultPayloadFormat,
		QueueDepth:    DefaultQueueDepth,
		Color:         true,
	}
}
