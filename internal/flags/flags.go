// Package flags provides feature flag support for behavior that is off until
// asked for. Flags are read-only after initialization and unknown flags are
// disabled.
package flags

import (
	"maps"

	"github.com/zjrosen/lcdterm/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagPacingSpans records a trace span for every pacing delay on the
	// serial link, on top of the write and read spans.
	FlagPacingSpans = "pacing-spans"

	// FlagWeatherNoCache asks the weather command on every fetch instead of
	// reusing reports for weather.refresh.
	FlagWeatherNoCache = "weather-no-cache"
)

// Registry holds feature flag state loaded from configuration.
// Flags are read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map.
// If flags is nil, an empty registry is created (all flags disabled).
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: maps.Clone(flags)}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags and on a nil registry.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags (for debugging/logging).
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
