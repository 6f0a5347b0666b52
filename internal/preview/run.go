package preview

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/lcdterm/internal/log"
	"github.com/zjrosen/lcdterm/internal/pubsub"
	"github.com/zjrosen/lcdterm/internal/screen"
)

// Run shows the preview while work drives the simulated display. It returns
// when the user quits or work ends, whichever comes first, and reports the
// error from work.
func Run(ctx context.Context, snapshots pubsub.Subscriber[screen.Snapshot], work func(context.Context) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(pubsub.NewListener(ctx, snapshots), log.NewListener(ctx))
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	done := make(chan error, 1)
	go func() {
		err := work(ctx)
		done <- err
		p.Quit()
	}()

	_, runErr := p.Run()
	cancel()
	workErr := <-done

	if errors.Is(runErr, tea.ErrProgramKilled) || errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if errors.Is(workErr, context.Canceled) {
		workErr = nil
	}
	return errors.Join(workErr, runErr)
}
