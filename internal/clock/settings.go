package clock

import (
	"fmt"

	"github.com/zjrosen/lcdterm/internal/protocol"
)

// Settings are the user-facing options of the clock.
type Settings struct {
	HourColor   protocol.Color
	MinuteColor protocol.Color
	AmPmColor   protocol.Color
	DateColor   protocol.Color
	Brightness  int
	ShowDate    bool
	Debug       bool
}

// DefaultSettings returns red hours, green minutes and a white AM/PM at
// brightness 50.
func DefaultSettings() Settings {
	return Settings{
		HourColor:   protocol.Red,
		MinuteColor: protocol.Green,
		AmPmColor:   protocol.White,
		DateColor:   protocol.Cyan,
		Brightness:  50,
	}
}

// Validate checks every color is 0-7 and the brightness is 1-255.
func (s Settings) Validate() error {
	for name, c := range map[string]protocol.Color{
		"hour":   s.HourColor,
		"minute": s.MinuteColor,
		"ampm":   s.AmPmColor,
		"date":   s.DateColor,
	} {
		if !c.Valid() {
			return fmt.Errorf("%w: %s color %d outside 0-7", protocol.ErrInvalidArgument, name, int(c))
		}
	}
	if s.Brightness < 1 || s.Brightness > 255 {
		return fmt.Errorf("%w: brightness %d outside 1-255", protocol.ErrInvalidArgument, s.Brightness)
	}
	return nil
}

// drawing is the subset of settings that changes what is on the face.
type drawing struct {
	hour, minute, ampm, date protocol.Color
	showDate                 bool
}

func (s Settings) drawing() drawing {
	return drawing{s.HourColor, s.MinuteColor, s.AmPmColor, s.DateColor, s.ShowDate}
}
