package screen

import "github.com/zjrosen/lcdterm/internal/protocol"

// Snapshot is a text rendering of what a widget last drew, for previews.
type Snapshot struct {
	Title      string
	Lines      []string
	Columns    int
	Rows       int
	Foreground protocol.Color
	Background protocol.Color
	Backlight  int
}

// Snapshot describes the current screen state with the given lines.
func (s *Screen) Snapshot(title string, lines []string) Snapshot {
	return Snapshot{
		Title:      title,
		Lines:      append([]string(nil), lines...),
		Columns:    s.Columns(),
		Rows:       s.Rows(),
		Foreground: s.fg,
		Background: s.bg,
		Backlight:  s.backlight,
	}
}
