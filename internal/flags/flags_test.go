package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{"enabled flag", New(map[string]bool{FlagPacingSpans: true}), FlagPacingSpans, true},
		{"disabled flag", New(map[string]bool{FlagPacingSpans: false}), FlagPacingSpans, false},
		{"unknown flag", New(map[string]bool{FlagPacingSpans: true}), FlagWeatherNoCache, false},
		{"nil registry", nil, FlagPacingSpans, false},
		{"nil map", New(nil), FlagWeatherNoCache, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_All(t *testing.T) {
	require.Equal(t, map[string]bool{}, (*Registry)(nil).All())
	require.Equal(t, map[string]bool{}, New(nil).All())
	require.Equal(t,
		map[string]bool{FlagPacingSpans: true, FlagWeatherNoCache: false},
		New(map[string]bool{FlagPacingSpans: true, FlagWeatherNoCache: false}).All())
}

func TestRegistry_IsolatedFromCallers(t *testing.T) {
	src := map[string]bool{FlagPacingSpans: true}
	r := New(src)

	src[FlagPacingSpans] = false
	require.True(t, r.Enabled(FlagPacingSpans), "later edits to the config map do not leak in")

	all := r.All()
	all[FlagWeatherNoCache] = true
	require.False(t, r.Enabled(FlagWeatherNoCache), "edits to All's result do not leak in")
}
