package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/lcdterm/internal/scrollback"
)

var ttyCmd = &cobra.Command{
	Use:   "tty",
	Short: "Print lines from standard input on the panel",
	Long: `Read standard input line by line and print each line on the panel,
scrolling older lines off the top like a terminal.`,
	Args: cobra.NoArgs,
	RunE: runTTY,
}

func init() {
	ttyCmd.Flags().Int("max-lines", scrollback.DefaultMaxLines, "lines of history to keep")
	rootCmd.AddCommand(ttyCmd)
}

func runTTY(cmd *cobra.Command, _ []string) error {
	maxLines, _ := cmd.Flags().GetInt("max-lines")
	in := cmd.InOrStdin()

	work := func(ctx context.Context, s *session) error {
		term := scrollback.NewTerminal(s.screen, "tty").
			WithBuffer(scrollback.NewBuffer(maxLines)).
			WithPublisher(s.snapshots)
		if err := term.Clear(); err != nil {
			return err
		}
		return pipeLines(ctx, in, term.PrintLn)
	}

	// Standard input belongs to the piped text, not the preview.
	return runOnPanel("tty", work, tea.WithInput(nil))
}

// pipeLines calls printLn for every line read from r until r ends or ctx is
// done.
func pipeLines(ctx context.Context, r io.Reader, printLn func(string) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
				default:
				}
				return nil
			}
			if err := printLn(line); err != nil {
				return err
			}
		}
	}
}
