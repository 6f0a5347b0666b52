// Package weather feeds a weather report to the panel one line at a time,
// scrolling like a teleprinter.
package weather

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/zjrosen/lcdterm/internal/cachemanager"
	"github.com/zjrosen/lcdterm/internal/log"
)

// StationPlaceholder in a command argument is replaced by the station code.
const StationPlaceholder = "{station}"

var (
	// ErrNoStation is returned when no station is configured.
	ErrNoStation = errors.New("no weather station configured")
	// ErrNoCommand is returned for an empty report command.
	ErrNoCommand = errors.New("no weather command configured")
)

// Source produces a plain-text weather report for a station.
type Source interface {
	Report(ctx context.Context, station string) (string, error)
}

// Compile-time checks.
var (
	_ Source = (*CommandSource)(nil)
	_ Source = (*CachedSource)(nil)
)

// CommandSource runs an external program and uses its standard output as
// the report.
type CommandSource struct {
	argv    []string
	workDir string
}

// NewCommandSource returns a source running argv, with StationPlaceholder
// substituted in every argument.
func NewCommandSource(argv []string, workDir string) (*CommandSource, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrNoCommand
	}
	return &CommandSource{argv: append([]string(nil), argv...), workDir: workDir}, nil
}

// Args returns the command line for station.
func (c *CommandSource) Args(station string) []string {
	args := make([]string, len(c.argv))
	for i, a := range c.argv {
		args[i] = strings.ReplaceAll(a, StationPlaceholder, station)
	}
	return args
}

// Report runs the command and returns its trimmed output.
func (c *CommandSource) Report(ctx context.Context, station string) (string, error) {
	if station == "" {
		return "", ErrNoStation
	}
	start := time.Now()
	defer func() {
		log.Debug(log.CatWeather, "report command completed", "station", station, "duration", time.Since(start))
	}()

	args := c.Args(station)
	//nolint:gosec // G204: the command comes from the user's own config
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%s failed: %s: %w", args[0], msg, err)
		} else {
			err = fmt.Errorf("%s failed: %w", args[0], err)
		}
		log.ErrorErr(log.CatWeather, "report command failed", err, "station", station)
		return "", err
	}

	return strings.TrimSpace(stdout.String()), nil
}

// CachedSource keeps each station's report for a while so the ticker can
// cycle through it without running the command every pass.
type CachedSource struct {
	rtc *cachemanager.ReadThroughCache[string, string, string]
	ttl time.Duration
}

// NewCachedSource wraps next with a cache holding reports for ttl.
func NewCachedSource(next Source, cache cachemanager.CacheManager[string, string], ttl time.Duration) *CachedSource {
	return &CachedSource{
		rtc: cachemanager.NewReadThroughCache[string, string, string](cache, next.Report, false),
		ttl: ttl,
	}
}

// Report returns the cached report for station, fetching it when missing.
func (c *CachedSource) Report(ctx context.Context, station string) (string, error) {
	if station == "" {
		return "", ErrNoStation
	}
	return c.rtc.Get(ctx, station, station, c.ttl)
}

// Invalidate forces the next Report for station to fetch.
func (c *CachedSource) Invalidate(ctx context.Context, station string) error {
	return c.rtc.Invalidate(ctx, station)
}
