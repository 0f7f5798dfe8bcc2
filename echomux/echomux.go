// Package echomux runs the whole session: one listener per configured
// port, one keypress watcher, and the aggregator draining their events
// to the console.
package echomux

import (
	"context"
	"fmt"
	"io"
	"os"

	"echomux/config"
	"echomux/internal/aggregator"
	"echomux/internal/event"
	"echomux/internal/keypress"
	"echomux/internal/listener"
	"echomux/internal/metrics"
	"echomux/internal/report"
	"echomux/internal/termguard"
	"echomux/util"
)

// Server orchestrates a single session.
type Server struct {
	Config  *config.Config
	Logger  *util.Logger
	Metrics *metrics.Collector
	Guard   *termguard.Guard

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

// New returns a ready-to-run Server reading keys from the process's
// terminal.
func New(cfg *config.Config, logger *util.Logger) *Server {
	return &Server{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Guard:   termguard.New(int(os.Stdin.Fd())),
	}
}

func (s *Server) stdin() io.Reader {
	if s.Stdin != nil {
		return s.Stdin
	}
	return os.Stdin
}

func (s *Server) stdout() io.Writer {
	if s.Stdout != nil {
		return s.Stdout
	}
	return os.Stdout
}

// Run starts every listener and the keypress watcher, then drains
// events until a shutdown key, until every producer has finished, or
// until ctx ends (SIGINT/SIGTERM).
//
// Only the keypress watcher is joined.  Listeners and handlers are not
// cancelled on a shutdown key; their later sends fail and are logged.
// When ctx ends first the watcher is still blocked on stdin, so Run
// restores the terminal itself and returns without joining it.
func (s *Server) Run(ctx context.Context) error {
	defer s.Guard.Rescue()

	tx, rx := event.NewStream(s.Config.QueueDepth)

	fmt.Fprintf(s.stdout(), "Echoing on ports %v; press '%c' for help, '%c' to quit\n",
		s.Config.Ports, keypress.KeyHelp, keypress.KeyQuit)

	for _, port := range s.Config.Ports {
		ltx, err := tx.Clone()
		if err != nil {
			return err
		}
		l := &listener.Listener{
			Host:    s.Config.Host,
			Port:    port,
			Logger:  s.Logger.With(fmt.Sprintf("port %d", port)),
			Metrics: s.Metrics,
			Guard:   s.Guard,
		}
		go s.listen(ctx, l, ltx)
	}

	ktx, err := tx.Clone()
	if err != nil {
		return err
	}
	w := &keypress.Watcher{
		In:     s.stdin(),
		Out:    s.stdout(),
		Guard:  s.Guard,
		Logger: s.Logger.With("keypress"),
	}
	watcherDone := make(chan error, 1)
	go func() {
		defer s.Guard.RecoverPanic()
		watcherDone <- w.Run(ktx)
	}()

	// Only producers hold senders from here on, so the stream closes
	// once all of them are finished.
	tx.Close()

	console := report.NewConsole(s.stdout(), s.Config.PayloadFormat, s.Config.Color)
	console.ShowConnIDs(s.Logger.Level() >= util.LogVerbose)
	agg := &aggregator.Aggregator{Reporter: console, Logger: s.Logger.With("aggregator")}

	outcome, err := agg.Run(ctx, rx)
	s.Logger.Verbose("aggregator stopped: %s", outcome)

	switch outcome {
	case aggregator.Cancelled:
		s.Guard.Rescue()
		s.Logger.Info("interrupted: %v", err)
	default:
		if werr := <-watcherDone; werr != nil {
			s.Logger.Error("%v", werr)
		}
	}

	s.Logger.Info("session stats: %s", s.Metrics.JSON())
	fmt.Fprintln(s.stdout(), "Goodbye!")
	return nil
}

// listen binds and serves one port.  A bind failure only takes this
// port out of service.
func (s *Server) listen(ctx context.Context, l *listener.Listener, tx *event.Sender) {
	defer s.Guard.RecoverPanic()

	if err := l.Bind(); err != nil {
		tx.Close()
		s.Metrics.RecordError(err.Error())
		s.Logger.Error("%v", err)
		return
	}
	if err := l.Serve(ctx, tx); err != nil {
		s.Metrics.RecordError(err.Error())
		s.Logger.Error("%v", err)
	}
}
