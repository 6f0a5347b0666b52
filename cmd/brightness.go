package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/lcdterm/internal/config"
	"github.com/zjrosen/lcdterm/internal/log"
)

var brightnessCmd = &cobra.Command{
	Use:   "brightness LEVEL",
	Short: "Set the backlight level (1-255)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrightness,
}

func init() {
	brightnessCmd.Flags().Bool("save", false, "also store the level as clock.brightness")
	rootCmd.AddCommand(brightnessCmd)
}

func runBrightness(cmd *cobra.Command, args []string) error {
	level, err := strconv.Atoi(args[0])
	if err != nil || level < 1 || level > 255 {
		return fmt.Errorf("brightness must be a number from 1 to 255, got %q", args[0])
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	setErr := s.screen.SetBacklight(level)
	if closeErr := s.Close(); closeErr != nil {
		log.ErrorErr(log.CatCLI, "closing panel", closeErr)
	}
	if setErr != nil {
		return fmt.Errorf("setting brightness: %w", setErr)
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		path := configPath()
		if err := config.SaveBrightness(path, level); err != nil {
			return fmt.Errorf("saving brightness: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved brightness %d to %s\n", level, path)
	}
	return nil
}
