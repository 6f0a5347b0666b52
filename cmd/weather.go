package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/lcdterm/internal/cachemanager"
	"github.com/zjrosen/lcdterm/internal/config"
	"github.com/zjrosen/lcdterm/internal/flags"
	"github.com/zjrosen/lcdterm/internal/scrollback"
	"github.com/zjrosen/lcdterm/internal/weather"
)

var weatherCmd = &cobra.Command{
	Use:   "weather [station]",
	Short: "Scroll the weather report for a station",
	Long: `Run weather.command for the station and scroll the report up the panel
one line per interval. Reports are reused for weather.refresh.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWeather,
}

func init() {
	weatherCmd.Flags().Bool("save", false, "remember the station in the config file")
	rootCmd.AddCommand(weatherCmd)
}

func runWeather(cmd *cobra.Command, args []string) error {
	station := cfg.Weather.Station
	if len(args) == 1 {
		station = args[0]
	}
	if station == "" {
		return fmt.Errorf("%w: pass one or set weather.station", weather.ErrNoStation)
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := config.SaveStation(configPath(), station); err != nil {
			return fmt.Errorf("saving station: %w", err)
		}
	}

	command, err := weather.NewCommandSource(cfg.Weather.Command, "")
	if err != nil {
		return err
	}
	var source weather.Source = command
	if !flags.New(cfg.Flags).Enabled(flags.FlagWeatherNoCache) {
		cache := cachemanager.NewInMemoryCacheManager[string, string]("weather",
			cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
		source = weather.NewCachedSource(command, cache, cfg.Weather.Refresh)
	}

	return runOnPanel("weather", func(ctx context.Context, s *session) error {
		term := scrollback.NewTerminal(s.screen, "weather "+station).WithPublisher(s.snapshots)
		if err := term.Clear(); err != nil {
			return err
		}
		// After the clear, which restores the default size.
		if err := s.screen.SetTextSize(cfg.Weather.TextSize); err != nil {
			return err
		}

		ticker, err := weather.NewTicker(term, source, station)
		if err != nil {
			return err
		}
		return ticker.Run(ctx, cfg.Weather.Interval)
	})
}
