package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/lcdterm/internal/clock"
	"github.com/zjrosen/lcdterm/internal/config"
	"github.com/zjrosen/lcdterm/internal/log"
	"github.com/zjrosen/lcdterm/internal/watcher"
)

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Show a large clock face",
	Long: `Show the time in large digits with AM/PM and, optionally, the date.
Colors, brightness and show_date are re-read whenever the config file changes.`,
	Args: cobra.NoArgs,
	RunE: runClock,
}

func init() {
	clockCmd.Flags().Bool("show-date", false, "show the date under the time")
	clockCmd.Flags().Bool("debug-clock", false, "advance one hour and one minute per refresh")
	_ = viper.BindPFlag("clock.show_date", clockCmd.Flags().Lookup("show-date"))
	_ = viper.BindPFlag("clock.debug_clock", clockCmd.Flags().Lookup("debug-clock"))
	rootCmd.AddCommand(clockCmd)
}

func runClock(cmd *cobra.Command, _ []string) error {
	settings, err := cfg.Clock.Settings()
	if err != nil {
		return err
	}

	return runOnPanel("clock", func(ctx context.Context, s *session) error {
		face, err := clock.NewFace(s.screen, settings, clock.WithPublisher(s.snapshots))
		if err != nil {
			return err
		}
		updates := watchClockSettings(ctx, viper.ConfigFileUsed(), flagOverrides(cmd, settings))
		return face.Run(ctx, cfg.Clock.Refresh, updates)
	})
}

// flagOverrides keeps flags given on the command line in force across
// config reloads.
func flagOverrides(cmd *cobra.Command, fromFlags clock.Settings) func(*clock.Settings) {
	showDate := cmd.Flags().Changed("show-date")
	debugClock := cmd.Flags().Changed("debug-clock")
	return func(s *clock.Settings) {
		if showDate {
			s.ShowDate = fromFlags.ShowDate
		}
		if debugClock {
			s.Debug = fromFlags.Debug
		}
	}
}

// watchClockSettings reloads the clock section whenever path changes. It
// returns nil, which never delivers, when there is no file to watch.
func watchClockSettings(ctx context.Context, path string, override func(*clock.Settings)) <-chan clock.Settings {
	if path == "" {
		return nil
	}

	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		log.ErrorErr(log.CatWatcher, "config watcher unavailable", err, "path", path)
		return nil
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		log.ErrorErr(log.CatWatcher, "config watcher unavailable", err, "path", path)
		return nil
	}

	updates := make(chan clock.Settings, 1)
	go func() {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
			}

			reloaded, err := config.Load(path)
			if err != nil {
				log.ErrorErr(log.CatConfig, "ignoring changed config", err, "path", path)
				continue
			}
			settings, err := reloaded.Clock.Settings()
			if err != nil {
				log.ErrorErr(log.CatConfig, "ignoring changed clock settings", err, "path", path)
				continue
			}
			override(&settings)

			select {
			case updates <- settings:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates
}
