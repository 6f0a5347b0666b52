package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/zjrosen/lcdterm/internal/flags"
	"github.com/zjrosen/lcdterm/internal/link"
	"github.com/zjrosen/lcdterm/internal/log"
	"github.com/zjrosen/lcdterm/internal/preview"
	"github.com/zjrosen/lcdterm/internal/protocol"
	"github.com/zjrosen/lcdterm/internal/pubsub"
	"github.com/zjrosen/lcdterm/internal/screen"
	"github.com/zjrosen/lcdterm/internal/scrollback"
	"github.com/zjrosen/lcdterm/internal/tracing"
)

// simulatedOps bounds the operations kept by the simulated channel.
const simulatedOps = 4096

// session is one open connection to the panel, real or simulated.
type session struct {
	screen    *screen.Screen
	snapshots *pubsub.Broker[screen.Snapshot]

	channel  link.Channel
	provider *tracing.Provider
}

// openSession opens the serial port, or a recorder under --simulate, and
// wraps it with tracing.
func openSession() (*session, error) {
	provider, err := tracing.NewProvider(cfg.Tracing.TracerConfig())
	if err != nil {
		return nil, fmt.Errorf("starting tracing: %w", err)
	}

	var ch link.Channel
	if simulate {
		rec := link.NewRecorder()
		rec.Limit = simulatedOps
		// Stand in for the panel's cursor report.
		rec.Respond("row=1, col=1")
		ch = rec
		log.Info(log.CatCLI, "simulating panel")
	} else {
		port, err := link.Open(cfg.Device.LinkConfig())
		if err != nil {
			_ = provider.Shutdown(context.Background())
			return nil, err
		}
		ch = port
	}

	sessionID := uuid.NewString()
	log.Debug(log.CatCLI, "session opened", "session", sessionID, "port", cfg.Device.Port, "simulate", simulate)

	var traceOpts []link.TracedOption
	if flags.New(cfg.Flags).Enabled(flags.FlagPacingSpans) {
		traceOpts = append(traceOpts, link.WithSleepSpans())
	}
	traced := link.Traced(ch, provider.Tracer(), sessionID, traceOpts...)
	return &session{
		screen:    screen.New(traced, protocol.Standard{}, cfg.Device.ScreenOptions()),
		snapshots: pubsub.NewBroker[screen.Snapshot](pubsub.WithReplay()),
		channel:   traced,
		provider:  provider,
	}, nil
}

// Close restores the panel, releases the port and flushes traces.
func (s *session) Close() error {
	s.snapshots.Close()
	closeErr := s.channel.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(closeErr, s.provider.Shutdown(ctx))
}

// runOnPanel opens a session and runs work until it returns or the process is
// interrupted. Under --simulate the preview is shown while work runs.
func runOnPanel(title string, work func(ctx context.Context, s *session) error, previewOpts ...tea.ProgramOption) (err error) {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			log.ErrorErr(log.CatCLI, "closing panel", closeErr)
			err = errors.Join(err, closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context) error {
		werr := work(ctx, s)
		if werr == nil || errors.Is(werr, context.Canceled) {
			return nil
		}
		log.ErrorErr(log.CatCLI, "command failed", werr, "command", title)
		if errorScreen {
			showError(ctx, s, werr)
		}
		return werr
	}

	if simulate {
		return preview.Run(ctx, s.snapshots, run, previewOpts...)
	}
	return run(ctx)
}

// showError writes err in red on the panel and waits for ctx. Nothing is
// shown when the panel itself has failed.
func showError(ctx context.Context, s *session, err error) {
	if errors.Is(err, link.ErrTransport) {
		return
	}
	term := scrollback.NewTerminal(s.screen, "error").WithPublisher(s.snapshots)
	if clearErr := term.Clear(); clearErr != nil {
		log.ErrorErr(log.CatCLI, "clearing error screen", clearErr)
		return
	}
	if colorErr := errors.Join(
		s.screen.SetBackground(protocol.Black),
		s.screen.SetForeground(protocol.Red),
	); colorErr != nil {
		log.ErrorErr(log.CatCLI, "coloring error screen", colorErr)
		return
	}
	if printErr := term.PrintLn(err.Error()); printErr != nil {
		log.ErrorErr(log.CatCLI, "printing error screen", printErr)
		return
	}
	if !simulate {
		fmt.Fprintln(os.Stderr, "error shown on the panel; press ctrl+c to exit")
	}
	<-ctx.Done()
}
