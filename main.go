// echomux - a multi-port TCP echo server with a live console event log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"echomux/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "echomux: %v\n", err)
		os.Exit(1)
	}
}
