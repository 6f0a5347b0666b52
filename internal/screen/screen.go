package screen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zjrosen/lcdterm/internal/link"
	"github.com/zjrosen/lcdterm/internal/log"
	"github.com/zjrosen/lcdterm/internal/protocol"
)

// ErrInvalidState is returned for frame operations out of order.
var ErrInvalidState = errors.New("invalid state")

// Options configures a Screen. The zero value of any field selects its default.
type Options struct {
	Geometry    Geometry
	MaxChunk    int
	PacePerUnit time.Duration
	BaseDelay   time.Duration
	ResetDelay  time.Duration
	EraseDelay  time.Duration

	// Power-on state of the panel, restored by Clear.
	TextSize   int
	Rotation   int
	Foreground protocol.Color
	Background protocol.Color
}

// DefaultOptions returns the timings and power-on state of the panel.
func DefaultOptions() Options {
	return Options{
		Geometry:    DefaultGeometry(),
		MaxChunk:    DefaultMaxChunk,
		PacePerUnit: DefaultPacePerUnit,
		BaseDelay:   time.Millisecond,
		ResetDelay:  100 * time.Millisecond,
		EraseDelay:  50 * time.Millisecond,
		TextSize:    2,
		Rotation:    1,
		Foreground:  protocol.White,
		Background:  protocol.Black,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Geometry == (Geometry{}) {
		o.Geometry = d.Geometry
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = d.BaseDelay
	}
	if o.ResetDelay <= 0 {
		o.ResetDelay = d.ResetDelay
	}
	if o.EraseDelay <= 0 {
		o.EraseDelay = d.EraseDelay
	}
	if o.TextSize < 1 {
		o.TextSize = d.TextSize
	}
	return o
}

// Screen tracks the panel's state and emits commands for every change.
//
// A Screen is owned by one goroutine. Interleaving calls from several
// goroutines would corrupt chunk pacing and the column accounting.
type Screen struct {
	ch     link.Channel
	enc    protocol.Encoder
	writer *Writer
	opts   Options

	textSize    int
	orientation protocol.Orientation
	fg, bg      protocol.Color
	backlight   int
	charsOnLine int

	batching bool
	frame    strings.Builder
}

// New returns a Screen writing to ch in the vocabulary of enc. The panel is
// assumed to be in its power-on state.
func New(ch link.Channel, enc protocol.Encoder, opts Options) *Screen {
	opts = opts.withDefaults()
	s := &Screen{
		ch:     ch,
		enc:    enc,
		writer: NewWriter(ch, opts.MaxChunk, opts.PacePerUnit),
		opts:   opts,
	}
	s.resetState()
	return s
}

func (s *Screen) resetState() {
	s.textSize = s.opts.TextSize
	s.orientation = protocol.OrientationFor(s.opts.Rotation)
	s.fg = s.opts.Foreground
	s.bg = s.opts.Background
	s.charsOnLine = 0
	s.backlight = -1
}

// Columns is the number of glyphs per row at the current text size.
func (s *Screen) Columns() int {
	return s.opts.Geometry.Columns(s.textSize, s.orientation)
}

// Rows is the number of rows at the current text size.
func (s *Screen) Rows() int {
	return s.opts.Geometry.Rows(s.textSize, s.orientation)
}

// TextSize is the current font scale.
func (s *Screen) TextSize() int { return s.textSize }

// Orientation is the current screen orientation.
func (s *Screen) Orientation() protocol.Orientation { return s.orientation }

// Foreground is the current text color.
func (s *Screen) Foreground() protocol.Color { return s.fg }

// Background is the current background color.
func (s *Screen) Background() protocol.Color { return s.bg }

// Backlight is the last level set with SetBacklight, or -1 if it was never set.
func (s *Screen) Backlight() int { return s.backlight }

// CharsOnLine is the number of visible characters written since the start of
// the current row.
func (s *Screen) CharsOnLine() int { return s.charsOnLine }

// Batching reports whether a frame is open.
func (s *Screen) Batching() bool { return s.batching }

// write sends text through the chunked writer, or into the open frame.
// Invisible text (control sequences) does not advance the column count.
func (s *Screen) write(text string, split, invisible bool) error {
	if !invisible {
		s.charsOnLine += len(text)
	}
	if cols := s.Columns(); cols > 0 && s.charsOnLine >= cols {
		s.charsOnLine %= cols
	}

	if s.batching {
		s.frame.WriteString(text)
		return nil
	}
	return s.writer.Write(text, split)
}

// emit sends a control sequence as one unsplit emission followed by a fixed
// delay. Inside a frame the sequence is buffered and the delay dropped.
func (s *Screen) emit(seq string, delay time.Duration) error {
	if s.batching {
		s.frame.WriteString(seq)
		return nil
	}
	if err := s.ch.Write([]byte(seq)); err != nil {
		return err
	}
	s.ch.Sleep(delay)
	return nil
}

// SetForeground sets the text color.
func (s *Screen) SetForeground(c protocol.Color) error {
	if !c.Valid() {
		return fmt.Errorf("%w: foreground %d outside 0-7", protocol.ErrInvalidArgument, int(c))
	}
	if err := s.write(s.enc.Foreground(c), true, true); err != nil {
		return err
	}
	s.fg = c
	return nil
}

// SetBackground sets the background color.
func (s *Screen) SetBackground(c protocol.Color) error {
	if !c.Valid() {
		return fmt.Errorf("%w: background %d outside 0-7", protocol.ErrInvalidArgument, int(c))
	}
	if err := s.write(s.enc.Background(c), true, true); err != nil {
		return err
	}
	s.bg = c
	return nil
}

// SetTextSize scales the font. Glyphs are 6n x 8n pixels, so the column and
// row counts change with it.
func (s *Screen) SetTextSize(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: text size %d, must be >= 1", protocol.ErrInvalidArgument, n)
	}
	if err := s.write(s.enc.TextSize(n), true, true); err != nil {
		return err
	}
	s.textSize = n
	s.rewrapColumn()
	return nil
}

// SetOrientation rotates the screen by rotation quarter turns (0-3).
func (s *Screen) SetOrientation(rotation int) error {
	if rotation < 0 || rotation > 3 {
		return fmt.Errorf("%w: rotation %d outside 0-3", protocol.ErrInvalidArgument, rotation)
	}
	if err := s.emit(s.enc.Orientation(rotation), s.opts.BaseDelay); err != nil {
		return err
	}
	s.orientation = protocol.OrientationFor(rotation)
	s.rewrapColumn()
	return nil
}

// rewrapColumn keeps the column count inside the row after the geometry changes.
func (s *Screen) rewrapColumn() {
	if cols := s.Columns(); cols > 0 {
		s.charsOnLine %= cols
	}
}

// SetBacklight sets the backlight level, 0 (off) to 255.
func (s *Screen) SetBacklight(level int) error {
	if level < 0 || level > 255 {
		return fmt.Errorf("%w: backlight %d outside 0-255", protocol.ErrInvalidArgument, level)
	}
	if err := s.write(s.enc.Backlight(level), true, true); err != nil {
		return err
	}
	s.backlight = level
	return nil
}

// MoveCursorTo positions the cursor.
func (s *Screen) MoveCursorTo(row, col int) error {
	if row < 0 || col < 0 {
		return fmt.Errorf("%w: cursor position %d,%d", protocol.ErrInvalidArgument, row, col)
	}
	if err := s.write(s.enc.Goto(row, col), true, true); err != nil {
		return err
	}
	s.pace(s.opts.BaseDelay)
	return nil
}

// QueryCursor asks the panel for the cursor position and blocks until it
// answers. It cannot be used inside a frame, since the query would not be sent.
func (s *Screen) QueryCursor() (row, col int, err error) {
	if s.batching {
		return 0, 0, fmt.Errorf("%w: cursor query inside a frame", ErrInvalidState)
	}
	if err := s.write(s.enc.QueryCursor(), true, true); err != nil {
		return 0, 0, err
	}
	resp, err := s.ch.ReadLine()
	if err != nil {
		return 0, 0, err
	}
	return s.enc.ParseCursor(resp)
}

// Home moves the cursor to the origin. The panel drops its colors when going
// home, so the current background and foreground are sent again.
func (s *Screen) Home() error {
	if err := s.write(s.enc.Home(), true, true); err != nil {
		return err
	}
	s.charsOnLine = 0

	if err := s.SetBackground(s.bg); err != nil {
		return err
	}
	return s.SetForeground(s.fg)
}

// WriteText writes visible text at the cursor.
func (s *Screen) WriteText(text string) error {
	return s.write(text, true, false)
}

// WriteLine writes text and pads it with spaces to the end of the row, so
// nothing from an earlier, longer line stays visible after it. Text that
// ends exactly at the row end gets no padding.
func (s *Screen) WriteLine(text string) error {
	pad := 0
	if cols := s.Columns(); cols > 0 {
		pad = cols - (s.charsOnLine+len(text))%cols
		if pad == cols {
			pad = 0
		}
	}
	return s.write(text+strings.Repeat(" ", pad), true, false)
}

// LineBreak moves the cursor to the start of the next row.
func (s *Screen) LineBreak() error {
	if err := s.emit(s.enc.LineBreak(), s.opts.BaseDelay); err != nil {
		return err
	}
	s.charsOnLine = 0
	return nil
}

// ResetDevice resets the panel to its power-on state.
func (s *Screen) ResetDevice() error {
	if err := s.emit(s.enc.Reset(), s.opts.ResetDelay); err != nil {
		return err
	}
	s.resetState()
	return nil
}

// EraseScreen blanks the screen without moving the cursor.
func (s *Screen) EraseScreen() error {
	return s.emit(s.enc.EraseScreen(), s.opts.EraseDelay)
}

// Clear resets the panel, erases it and homes the cursor, leaving it ready
// for drawing with the default colors.
func (s *Screen) Clear() error {
	if err := s.ResetDevice(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := s.EraseScreen(); err != nil {
		return fmt.Errorf("erase: %w", err)
	}
	if err := s.Home(); err != nil {
		return fmt.Errorf("home: %w", err)
	}
	return nil
}

// EraseRows blanks count rows starting at row start.
func (s *Screen) EraseRows(start, count int) error {
	if err := s.Home(); err != nil {
		return err
	}
	for i := 0; i < start; i++ {
		if err := s.LineBreak(); err != nil {
			return err
		}
	}
	blank := strings.Repeat(" ", s.Columns())
	for i := 0; i < count; i++ {
		if err := s.WriteText(blank); err != nil {
			return err
		}
	}
	return nil
}

// Sleep holds the caller for d through the channel.
func (s *Screen) Sleep(d time.Duration) {
	s.ch.Sleep(d)
}

// pace waits d unless a frame is open.
func (s *Screen) pace(d time.Duration) {
	if !s.batching {
		s.ch.Sleep(d)
	}
}

// BeginFrame starts buffering output. Until EndFrame nothing is sent and no
// pacing delays are taken.
func (s *Screen) BeginFrame() error {
	if s.batching {
		return fmt.Errorf("%w: frame already open", ErrInvalidState)
	}
	s.batching = true
	s.frame.Reset()
	return nil
}

// EndFrame sends everything buffered since BeginFrame as one split write.
// The buffer is discarded even if the write fails.
func (s *Screen) EndFrame() error {
	if !s.batching {
		return fmt.Errorf("%w: no frame open", ErrInvalidState)
	}
	s.batching = false
	buf := s.frame.String()
	s.frame.Reset()

	log.Debug(log.CatScreen, "flushing frame", "bytes", len(buf))
	return s.writer.Write(buf, true)
}
