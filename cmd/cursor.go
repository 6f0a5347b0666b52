package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Print the panel's cursor position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		row, col, err := s.screen.QueryCursor()
		if err != nil {
			return fmt.Errorf("querying cursor: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "row=%d col=%d\n", row, col)
		return err
	},
}

func init() {
	rootCmd.AddCommand(cursorCmd)
}

