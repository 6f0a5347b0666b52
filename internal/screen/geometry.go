package screen

import "github.com/zjrosen/lcdterm/internal/protocol"

// Geometry describes the panel in pixels and the size of one glyph cell at
// text size 1.
type Geometry struct {
	Width       int
	Height      int
	GlyphWidth  int
	GlyphHeight int
}

// DefaultGeometry is the 320x240 panel with a 6x8 font.
func DefaultGeometry() Geometry {
	return Geometry{Width: 320, Height: 240, GlyphWidth: 6, GlyphHeight: 8}
}

// Columns returns how many glyphs fit on one row.
func (g Geometry) Columns(textSize int, o protocol.Orientation) int {
	if textSize < 1 || g.GlyphWidth < 1 {
		return 0
	}
	if o == protocol.Horizontal {
		return g.Width / (textSize * g.GlyphWidth)
	}
	return g.Height / (textSize * g.GlyphWidth)
}

// Rows returns how many rows of glyphs fit on the screen.
func (g Geometry) Rows(textSize int, o protocol.Orientation) int {
	if textSize < 1 || g.GlyphHeight < 1 {
		return 0
	}
	if o == protocol.Horizontal {
		return g.Height / (textSize * g.GlyphHeight)
	}
	return g.Width / (textSize * g.GlyphHeight)
}
