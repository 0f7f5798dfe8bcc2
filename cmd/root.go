// Package cmd wires up the CLI flags and starts the echo session.
package cmd

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"echomux/config"
	"echomux/echomux"
	"echomux/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X echomux/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs an echomux session.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Defaults()
	fs := flag.NewFlagSet("echomux", flag.ContinueOnError)

	// ── listening ────────────────────────────────────────────────
	portSpecs := fs.StringSliceP("ports", "p", []string{config.DefaultPortSpec},
		"Ports or ranges to listen on (e.g. 3000,3001 or 3000-3002)")
	fs.StringVarP(&cfg.Host, "bind", "b", config.DefaultBindHost, "Bind address (default all interfaces)")

	// ── reporting ────────────────────────────────────────────────
	fs.StringVar(&cfg.PayloadFormat, "payload", config.DefaultPayloadFormat,
		"Payload dump format: bytes, hex, text")
	fs.IntVar(&cfg.QueueDepth, "queue", config.DefaultQueueDepth, "Initial event queue capacity")
	noColor := fs.Bool("no-color", false, "Disable styled output")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase diagnostic verbosity on stderr (repeatable)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("echomux %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	ports, err := config.ParsePortList(*portSpecs)
	if err != nil {
		return fmt.Errorf("ports: %w", err)
	}
	cfg.Ports = ports
	cfg.Color = !*noColor

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DryRun {
		fmt.Printf("echomux: configuration ok (ports %v)\n", cfg.Ports)
		return nil
	}

	// ── run ──────────────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	return echomux.New(cfg, logger).Run(ctx)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `echomux – multi-port TCP echo monitor v%s

Binds every port, accepts one connection per port, echoes what each
client sends and prints every connection event on the console.

Usage:
  echomux [options]

Keys:
  q                                            Quit
  ?                                            Show key help

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  echomux                                      Listen on 3000-3002
  echomux -p 4000,4001 --payload text          Two ports, quoted payloads
  echomux -b 127.0.0.1 -p 5000-5009 -vv        Ten loopback ports, verbose
`)
}
