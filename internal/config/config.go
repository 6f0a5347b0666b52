// Package config provides configuration types, defaults and validation for
// lcdterm.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/lcdterm/internal/clock"
	"github.com/zjrosen/lcdterm/internal/link"
	"github.com/zjrosen/lcdterm/internal/log"
	"github.com/zjrosen/lcdterm/internal/protocol"
	"github.com/zjrosen/lcdterm/internal/screen"
	"github.com/zjrosen/lcdterm/internal/templates"
	"github.com/zjrosen/lcdterm/internal/tracing"
)

// Config holds all configuration options for lcdterm.
type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Clock   ClockConfig   `mapstructure:"clock"`
	Weather WeatherConfig `mapstructure:"weather"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Log     LogConfig     `mapstructure:"log"`

	// Flags turns on optional behavior by name; see package flags.
	Flags map[string]bool `mapstructure:"flags"`
}

// DeviceConfig describes the serial link and the panel behind it.
type DeviceConfig struct {
	Port          string        `mapstructure:"port"`
	BaudRate      int           `mapstructure:"baud_rate"`
	MaxChunk      int           `mapstructure:"max_chunk"`     // largest single write, in bytes
	PacePerUnit   time.Duration `mapstructure:"pace_per_unit"` // wait per byte written
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	ResetDelay    time.Duration `mapstructure:"reset_delay"`
	EraseDelay    time.Duration `mapstructure:"erase_delay"`
	SettleDelay   time.Duration `mapstructure:"settle_delay"` // after the startup handshake
	ShutdownDelay time.Duration `mapstructure:"shutdown_delay"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"` // 0 blocks forever
	TextSize      int           `mapstructure:"text_size"`
	Orientation   int           `mapstructure:"orientation"` // rotation 0-3
	Width         int           `mapstructure:"width"`
	Height        int           `mapstructure:"height"`
	GlyphWidth    int           `mapstructure:"glyph_width"`
	GlyphHeight   int           `mapstructure:"glyph_height"`
}

// ClockConfig holds the clock face options. Colors are names or 0-7.
type ClockConfig struct {
	HourColor   string        `mapstructure:"hour_color"`
	MinuteColor string        `mapstructure:"minute_color"`
	AmPmColor   string        `mapstructure:"ampm_color"`
	DateColor   string        `mapstructure:"date_color"`
	Brightness  int           `mapstructure:"brightness"`
	ShowDate    bool          `mapstructure:"show_date"`
	DebugClock  bool          `mapstructure:"debug_clock"`
	Refresh     time.Duration `mapstructure:"refresh"`
}

// WeatherConfig holds the weather ticker options.
type WeatherConfig struct {
	Station  string        `mapstructure:"station"`
	Command  []string      `mapstructure:"command"`  // {station} is replaced by the station
	Refresh  time.Duration `mapstructure:"refresh"`  // how long a report is reused
	Interval time.Duration `mapstructure:"interval"` // time between printed lines
	TextSize int           `mapstructure:"text_size"`
}

// TracingConfig holds distributed tracing configuration for the serial link.
type TracingConfig struct {
	// Enabled controls whether spans are recorded.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/lcdterm/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// LogConfig holds logging options. Logging is off unless File is set or
// --debug is given.
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultTracesFilePath returns ~/.config/lcdterm/traces/traces.jsonl, or
// an empty string if the home directory is unknown.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lcdterm", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	opts := screen.DefaultOptions()
	lc := link.DefaultConfig("/dev/ttyUSB0")
	return Config{
		Device: DeviceConfig{
			Port:          lc.Name,
			BaudRate:      lc.BaudRate,
			MaxChunk:      opts.MaxChunk,
			PacePerUnit:   opts.PacePerUnit,
			BaseDelay:     opts.BaseDelay,
			ResetDelay:    opts.ResetDelay,
			EraseDelay:    opts.EraseDelay,
			SettleDelay:   lc.SettleDelay,
			ShutdownDelay: lc.ShutdownDelay,
			TextSize:      opts.TextSize,
			Orientation:   opts.Rotation,
			Width:         opts.Geometry.Width,
			Height:        opts.Geometry.Height,
			GlyphWidth:    opts.Geometry.GlyphWidth,
			GlyphHeight:   opts.Geometry.GlyphHeight,
		},
		Clock: ClockConfig{
			HourColor:   "red",
			MinuteColor: "green",
			AmPmColor:   "white",
			DateColor:   "cyan",
			Brightness:  50,
			Refresh:     3 * time.Second,
		},
		Weather: WeatherConfig{
			Command:  []string{"weather", "{station}"},
			Refresh:  30 * time.Minute,
			Interval: 5 * time.Second,
			TextSize: 2,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Log: LogConfig{Level: "debug"},
	}
}

// SetDefaults registers every default with v so unset keys unmarshal to
// their default values.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	for key, value := range map[string]any{
		"device.port":           d.Device.Port,
		"device.baud_rate":      d.Device.BaudRate,
		"device.max_chunk":      d.Device.MaxChunk,
		"device.pace_per_unit":  d.Device.PacePerUnit,
		"device.base_delay":     d.Device.BaseDelay,
		"device.reset_delay":    d.Device.ResetDelay,
		"device.erase_delay":    d.Device.EraseDelay,
		"device.settle_delay":   d.Device.SettleDelay,
		"device.shutdown_delay": d.Device.ShutdownDelay,
		"device.read_timeout":   d.Device.ReadTimeout,
		"device.text_size":      d.Device.TextSize,
		"device.orientation":    d.Device.Orientation,
		"device.width":          d.Device.Width,
		"device.height":         d.Device.Height,
		"device.glyph_width":    d.Device.GlyphWidth,
		"device.glyph_height":   d.Device.GlyphHeight,
		"clock.hour_color":      d.Clock.HourColor,
		"clock.minute_color":    d.Clock.MinuteColor,
		"clock.ampm_color":      d.Clock.AmPmColor,
		"clock.date_color":      d.Clock.DateColor,
		"clock.brightness":      d.Clock.Brightness,
		"clock.show_date":       d.Clock.ShowDate,
		"clock.debug_clock":     d.Clock.DebugClock,
		"clock.refresh":         d.Clock.Refresh,
		"weather.station":       d.Weather.Station,
		"weather.command":       d.Weather.Command,
		"weather.refresh":       d.Weather.Refresh,
		"weather.interval":      d.Weather.Interval,
		"weather.text_size":     d.Weather.TextSize,
		"tracing.enabled":       d.Tracing.Enabled,
		"tracing.exporter":      d.Tracing.Exporter,
		"tracing.file_path":     d.Tracing.FilePath,
		"tracing.otlp_endpoint": d.Tracing.OTLPEndpoint,
		"tracing.sample_rate":   d.Tracing.SampleRate,
		"log.file":              d.Log.File,
		"log.level":             d.Log.Level,
	} {
		v.SetDefault(key, value)
	}
}

// Load reads the config file at path on top of the defaults and validates
// the result.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func Validate(c Config) error {
	if err := ValidateDevice(c.Device); err != nil {
		return err
	}
	if _, err := c.Clock.Settings(); err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	if err := ValidateWeather(c.Weather); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ValidateDevice checks device configuration for errors.
func ValidateDevice(d DeviceConfig) error {
	if d.BaudRate <= 0 {
		return fmt.Errorf("device.baud_rate must be positive, got %d", d.BaudRate)
	}
	if d.TextSize < 1 {
		return fmt.Errorf("device.text_size must be at least 1, got %d", d.TextSize)
	}
	if d.Orientation < 0 || d.Orientation > 3 {
		return fmt.Errorf("device.orientation must be 0-3, got %d", d.Orientation)
	}
	if d.Width <= 0 || d.Height <= 0 || d.GlyphWidth <= 0 || d.GlyphHeight <= 0 {
		return fmt.Errorf("device.width, height, glyph_width and glyph_height must be positive")
	}
	for name, dur := range map[string]time.Duration{
		"pace_per_unit":  d.PacePerUnit,
		"base_delay":     d.BaseDelay,
		"reset_delay":    d.ResetDelay,
		"erase_delay":    d.EraseDelay,
		"settle_delay":   d.SettleDelay,
		"shutdown_delay": d.ShutdownDelay,
		"read_timeout":   d.ReadTimeout,
	} {
		if dur < 0 {
			return fmt.Errorf("device.%s must not be negative, got %s", name, dur)
		}
	}
	return nil
}

// ValidateWeather checks weather configuration for errors. The station is
// only required by the weather command itself.
func ValidateWeather(w WeatherConfig) error {
	if len(w.Command) == 0 || w.Command[0] == "" {
		return fmt.Errorf("weather.command must name a program")
	}
	if w.Interval <= 0 {
		return fmt.Errorf("weather.interval must be positive, got %s", w.Interval)
	}
	if w.Refresh < 0 {
		return fmt.Errorf("weather.refresh must not be negative, got %s", w.Refresh)
	}
	if w.TextSize < 1 {
		return fmt.Errorf("weather.text_size must be at least 1, got %d", w.TextSize)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t TracingConfig) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled {
		if t.Exporter == tracing.ExporterFile && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// ScreenOptions converts the device section into screen options.
func (d DeviceConfig) ScreenOptions() screen.Options {
	return screen.Options{
		Geometry: screen.Geometry{
			Width:       d.Width,
			Height:      d.Height,
			GlyphWidth:  d.GlyphWidth,
			GlyphHeight: d.GlyphHeight,
		},
		MaxChunk:    d.MaxChunk,
		PacePerUnit: d.PacePerUnit,
		BaseDelay:   d.BaseDelay,
		ResetDelay:  d.ResetDelay,
		EraseDelay:  d.EraseDelay,
		TextSize:    d.TextSize,
		Rotation:    d.Orientation,
		Foreground:  protocol.White,
		Background:  protocol.Black,
	}
}

// LinkConfig converts the device section into serial port settings. The
// shutdown sequence restores the configured text size and orientation.
func (d DeviceConfig) LinkConfig() link.Config {
	cfg := link.DefaultConfig(d.Port)
	cfg.BaudRate = d.BaudRate
	cfg.ReadTimeout = d.ReadTimeout
	cfg.SettleDelay = d.SettleDelay
	cfg.ShutdownDelay = d.ShutdownDelay
	cfg.Shutdown = []byte(protocol.Standard{}.Restore(d.TextSize, d.Orientation))
	return cfg
}

// Settings converts the clock section into clock settings.
func (c ClockConfig) Settings() (clock.Settings, error) {
	var s clock.Settings
	for _, f := range []struct {
		name  string
		value string
		dst   *protocol.Color
	}{
		{"hour_color", c.HourColor, &s.HourColor},
		{"minute_color", c.MinuteColor, &s.MinuteColor},
		{"ampm_color", c.AmPmColor, &s.AmPmColor},
		{"date_color", c.DateColor, &s.DateColor},
	} {
		color, err := protocol.ParseColor(f.value)
		if err != nil {
			return clock.Settings{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = color
	}
	s.Brightness = c.Brightness
	s.ShowDate = c.ShowDate
	s.Debug = c.DebugClock
	if err := s.Validate(); err != nil {
		return clock.Settings{}, err
	}
	return s, nil
}

// TracerConfig converts the tracing section for the tracing package.
func (t TracingConfig) TracerConfig() tracing.Config {
	cfg := tracing.DefaultConfig()
	cfg.Enabled = t.Enabled
	cfg.Exporter = t.Exporter
	cfg.FilePath = t.FilePath
	cfg.OTLPEndpoint = t.OTLPEndpoint
	cfg.SampleRate = t.SampleRate
	return cfg
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return templates.DefaultConfig()
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
