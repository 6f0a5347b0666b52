// Package testutil builds simulated panels for tests of code that draws on
// the screen.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/lcdterm/internal/link"
	"github.com/zjrosen/lcdterm/internal/protocol"
	"github.com/zjrosen/lcdterm/internal/screen"
)

// PanelBuilder configures a Screen backed by a link.Recorder.
type PanelBuilder struct {
	t         *testing.T
	opts      screen.Options
	responses []string
	cols      int
	rows      int
}

// NewPanel starts from the default panel settings.
func NewPanel(t *testing.T) *PanelBuilder {
	t.Helper()
	return &PanelBuilder{t: t, opts: screen.DefaultOptions()}
}

// WithGrid sizes the panel to exactly cols x rows glyphs at text size 1 in
// landscape.
func (b *PanelBuilder) WithGrid(cols, rows int) *PanelBuilder {
	g := b.opts.Geometry
	b.opts.Geometry = screen.Geometry{
		Width:       cols * g.GlyphWidth,
		Height:      rows * g.GlyphHeight,
		GlyphWidth:  g.GlyphWidth,
		GlyphHeight: g.GlyphHeight,
	}
	b.opts.TextSize = 1
	b.opts.Rotation = 1
	b.cols, b.rows = cols, rows
	return b
}

// WithOptions replaces the screen options.
func (b *PanelBuilder) WithOptions(opts screen.Options) *PanelBuilder {
	b.opts = opts
	b.cols, b.rows = 0, 0
	return b
}

// WithResponses queues cursor reports for QueryCursor.
func (b *PanelBuilder) WithResponses(lines ...string) *PanelBuilder {
	b.responses = append(b.responses, lines...)
	return b
}

// Build creates the screen and the recorder behind it.
func (b *PanelBuilder) Build() (*screen.Screen, *link.Recorder) {
	b.t.Helper()
	rec := link.NewRecorder(b.responses...)
	s := screen.New(rec, protocol.Standard{}, b.opts)
	if b.cols > 0 {
		require.Equal(b.t, b.cols, s.Columns(), "panel columns")
		require.Equal(b.t, b.rows, s.Rows(), "panel rows")
	}
	return s, rec
}
