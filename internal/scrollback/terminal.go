package scrollback

import (
	"fmt"
	"strings"

	"github.com/zjrosen/lcdterm/internal/log"
	"github.com/zjrosen/lcdterm/internal/pubsub"
	"github.com/zjrosen/lcdterm/internal/screen"
)

// DefaultMaxLines bounds the history a Terminal keeps. It is far more than
// any text size can show.
const DefaultMaxLines = 1024

// Display is the part of a screen.Screen a Terminal draws with.
type Display interface {
	Rows() int
	Columns() int
	Home() error
	WriteText(text string) error
	LineBreak() error
	Clear() error
	BeginFrame() error
	EndFrame() error
	Snapshot(title string, lines []string) screen.Snapshot
}

var _ Display = (*screen.Screen)(nil)

// Terminal is a scrolling line printer: every printed line is appended to
// the history and the visible rows are redrawn from the top in one frame.
type Terminal struct {
	display Display
	buf     *Buffer
	title   string
	pub     pubsub.Publisher[screen.Snapshot]
}

// NewTerminal returns a Terminal drawing on d.
func NewTerminal(d Display, title string) *Terminal {
	return &Terminal{display: d, buf: NewBuffer(DefaultMaxLines), title: title}
}

// WithBuffer replaces the history, for a different line limit.
func (t *Terminal) WithBuffer(b *Buffer) *Terminal {
	t.buf = b
	return t
}

// WithPublisher makes the Terminal publish a snapshot after every redraw.
func (t *Terminal) WithPublisher(pub pubsub.Publisher[screen.Snapshot]) *Terminal {
	t.pub = pub
	return t
}

// Columns is the current row width of the display.
func (t *Terminal) Columns() int { return t.display.Columns() }

// Buffer returns the line history.
func (t *Terminal) Buffer() *Buffer { return t.buf }

// PrintLn appends line and redraws the screen.
func (t *Terminal) PrintLn(line string) error {
	t.buf.Append(line)
	return t.Redraw()
}

// Redraw writes the visible rows from the home position. Rows are padded to
// the full width so nothing drawn earlier stays visible beside them.
func (t *Terminal) Redraw() error {
	cols := t.display.Columns()
	rows := t.buf.VisibleRows(t.display.Rows(), cols)

	if err := t.display.BeginFrame(); err != nil {
		return err
	}
	if err := t.draw(rows, cols); err != nil {
		// the draw error wins
		_ = t.display.EndFrame()
		return err
	}
	if err := t.display.EndFrame(); err != nil {
		return fmt.Errorf("flushing terminal frame: %w", err)
	}

	log.Debug(log.CatScrollback, "redraw", "lines", t.buf.Len(), "rows", len(rows), "cols", cols)
	t.publish(pubsub.UpdatedEvent, rows)
	return nil
}

func (t *Terminal) draw(rows []string, cols int) error {
	if err := t.display.Home(); err != nil {
		return err
	}
	for i, row := range rows {
		if i > 0 {
			if err := t.display.LineBreak(); err != nil {
				return err
			}
		}
		if pad := cols - len(row); pad > 0 {
			row += strings.Repeat(" ", pad)
		}
		if err := t.display.WriteText(row); err != nil {
			return err
		}
	}
	return nil
}

// Clear forgets the history and clears the screen.
func (t *Terminal) Clear() error {
	t.buf.Reset()
	if err := t.display.Clear(); err != nil {
		return err
	}
	t.publish(pubsub.ClearedEvent, t.buf.VisibleRows(t.display.Rows(), t.display.Columns()))
	return nil
}

func (t *Terminal) publish(kind pubsub.EventType, rows []string) {
	if t.pub == nil {
		return
	}
	t.pub.Publish(kind, t.display.Snapshot(t.title, rows))
}
