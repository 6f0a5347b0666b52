package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/lcdterm/internal/config"
	"github.com/zjrosen/lcdterm/internal/log"
)

func init() {
	// Query the terminal background before the preview starts so the OSC 11
	// reply does not race with Bubble Tea's input reader.
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const (
	localConfigPath = ".lcdterm/config.yaml"
	debugEnv        = "LCDTERM_DEBUG"
)

var (
	version     = "dev"
	cfgFile     string
	cfg         config.Config
	debug       bool
	simulate    bool
	errorScreen bool
	stopLog     = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "lcdterm",
	Short: "Drive a serial LCD panel as a clock, weather ticker or terminal",
	Long: `lcdterm writes text to a small serial LCD panel. It paces and chunks
every write to fit the panel's input buffer and keeps a scrollback so the
panel can act as a tiny terminal.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/lcdterm/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"write a debug log (lcdterm.log unless log.file is set)")
	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false,
		"preview the panel in this terminal instead of using the serial port")
	rootCmd.PersistentFlags().BoolVar(&errorScreen, "error-screen", false,
		"show fatal errors on the panel and wait for ctrl+c")
	rootCmd.PersistentFlags().StringP("port", "p", "",
		"serial device of the panel")

	_ = viper.BindPFlag("device.port", rootCmd.PersistentFlags().Lookup("port"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .lcdterm/config.yaml (current directory)
		// 2. ~/.config/lcdterm/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "lcdterm"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create the default in the user config dir
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			defaultPath := userConfigPath()
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// userConfigPath is where a missing config is created and --save writes
// when no file was loaded.
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return localConfigPath
	}
	return filepath.Join(home, ".config", "lcdterm", "config.yaml")
}

// configPath returns the config file in use.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return userConfigPath()
}

func setup(_ *cobra.Command, _ []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return startLogging()
}

// startLogging turns logging on when --debug, LCDTERM_DEBUG or log.file asks
// for it.
func startLogging() error {
	path := cfg.Log.File
	if path == "" && (debug || os.Getenv(debugEnv) != "") {
		path = "lcdterm.log"
	}
	if path == "" {
		return nil
	}

	stop, err := log.Init(path)
	if err != nil {
		return fmt.Errorf("starting debug log: %w", err)
	}
	stopLog = stop

	// Validated in setup.
	level, _ := log.ParseLevel(cfg.Log.Level)
	log.SetMinLevel(level)
	log.Info(log.CatCLI, "lcdterm starting", "version", version, "config", viper.ConfigFileUsed())
	return nil
}

// Execute runs the root command
func Execute() error {
	defer func() { stopLog() }()
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
