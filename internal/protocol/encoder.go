// Package protocol defines the escape-code vocabulary spoken by the serial LCD panel.
//
// The vocabulary is pluggable: drivers talk to an Encoder, so a panel with a different
// command set only needs a new Encoder implementation.
package protocol

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ESC is the escape introducer byte that starts every control sequence.
const ESC = 0x1b

var (
	// ErrProtocol is returned when the device answers with something unparseable.
	ErrProtocol = errors.New("protocol error")

	// ErrInvalidArgument is returned when a parameter is outside the device's range.
	// Arguments are validated before anything is written.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Encoder produces the byte sequences for each device command.
type Encoder interface {
	Reset() string
	EraseScreen() string
	Home() string
	Goto(row, col int) string
	QueryCursor() string
	Foreground(c Color) string
	Background(c Color) string
	TextSize(n int) string
	Orientation(rotation int) string
	Backlight(level int) string
	LineBreak() string
	// Restore returns the shutdown sequence that leaves the panel in its
	// power-on screen mode.
	Restore(textSize, rotation int) string
	// ParseCursor parses the device's reply to QueryCursor.
	ParseCursor(resp string) (row, col int, err error)
}

// Compile-time check that Standard implements Encoder.
var _ Encoder = Standard{}

// Standard is the vocabulary of the ESC-[ based serial LCD firmware.
type Standard struct{}

const (
	sgrForeground = 3
	sgrBackground = 4
)

func (Standard) Reset() string { return "\x1bc" }
func (Standard) EraseScreen() string { return "\x1b[2J" }
func (Standard) Home() string { return "\x1b[H" }
func (Standard) QueryCursor() string { return "\x1b[6n" }
func (Standard) LineBreak() string { return "\n\r" }

func (Standard) Goto(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}

func (Standard) Foreground(c Color) string {
	return fmt.Sprintf("\x1b[%d%dm", sgrForeground, int(c))
}

func (Standard) Background(c Color) string {
	return fmt.Sprintf("\x1b[%d%dm", sgrBackground, int(c))
}

func (Standard) TextSize(n int) string {
	return fmt.Sprintf("\x1b[%ds", n)
}

func (Standard) Orientation(rotation int) string {
	return fmt.Sprintf("\x1b[%dr", rotation)
}

func (Standard) Backlight(level int) string {
	return fmt.Sprintf("\x1b[%dq", level)
}

func (s Standard) Restore(textSize, rotation int) string {
	var b strings.Builder
	b.WriteString(s.Reset())
	b.WriteString(s.TextSize(textSize))
	b.WriteString(s.Orientation(rotation))
	b.WriteByte('\r')
	return b.String()
}

var cursorResponse = regexp.MustCompile(`row=(\d+)\s*,\s*col=(\d+)`)

func (Standard) ParseCursor(resp string) (int, int, error) {
	m := cursorResponse.FindStringSubmatch(resp)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: invalid cursor response %q", ErrProtocol, resp)
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: cursor row %q: %v", ErrProtocol, m[1], err)
	}
	col, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: cursor col %q: %v", ErrProtocol, m[2], err)
	}
	return row, col, nil
}
