// Package clock draws a large 12-hour clock on the panel and keeps it current.
package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/lcdterm/internal/log"
	"github.com/zjrosen/lcdterm/internal/protocol"
	"github.com/zjrosen/lcdterm/internal/pubsub"
	"github.com/zjrosen/lcdterm/internal/screen"
)

// Layout of the face on a 320x240 panel: cursor position and text size of
// each element.
const (
	hourRow, hourCol, hourSize       = 0, 33, 18
	minuteRow, minuteCol, minuteSize = 217, 33, 8
	ampmRow, ampmCol, ampmSize       = 217, 130, 4
	dateRow, dateCol, dateSize       = 0, 200, 2

	dateLayout = "Mon Jan 2"
)

// Display is the part of a screen.Screen the face draws with.
type Display interface {
	Clear() error
	MoveCursorTo(row, col int) error
	SetTextSize(n int) error
	SetForeground(c protocol.Color) error
	SetBacklight(level int) error
	WriteText(text string) error
	Snapshot(title string, lines []string) screen.Snapshot
}

var _ Display = (*screen.Screen)(nil)

// Reading is the time shown on the face, in 24-hour form.
type Reading struct {
	Hour   int
	Minute int
}

// Hour12 returns the hour on a 12-hour dial, 1 to 12.
func (r Reading) Hour12() int {
	if h := r.Hour % 12; h != 0 {
		return h
	}
	return 12
}

// Meridiem returns AM or PM.
func (r Reading) Meridiem() string {
	if r.Hour < 12 {
		return "AM"
	}
	return "PM"
}

func (r Reading) String() string {
	return fmt.Sprintf("%2d:%02d %s", r.Hour12(), r.Minute, r.Meridiem())
}

// Option configures a Face.
type Option func(*Face)

// WithNow replaces the wall clock.
func WithNow(now func() time.Time) Option {
	return func(f *Face) { f.now = now }
}

// WithPublisher publishes a snapshot after every redraw.
func WithPublisher(pub pubsub.Publisher[screen.Snapshot]) Option {
	return func(f *Face) { f.pub = pub }
}

// Face is a clock on one display. It redraws only when the minute changes.
type Face struct {
	display  Display
	settings Settings
	now      func() time.Time
	pub      pubsub.Publisher[screen.Snapshot]

	shown    Reading
	hasShown bool

	// debugTime advances one hour and one minute per tick in debug mode.
	debugTime Reading
}

// NewFace returns a Face. The settings must be valid.
func NewFace(d Display, s Settings, opts ...Option) (*Face, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	f := &Face{display: d, settings: s, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Settings returns the settings in use.
func (f *Face) Settings() Settings { return f.settings }

// Start sets the backlight and draws the current time.
func (f *Face) Start() error {
	if err := f.display.SetBacklight(f.settings.Brightness); err != nil {
		return fmt.Errorf("setting brightness: %w", err)
	}
	_, err := f.Tick()
	return err
}

// Apply switches to new settings. A brightness change is sent at once and
// any change to what is drawn forces a redraw on the next tick.
func (f *Face) Apply(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	old := f.settings
	f.settings = s

	if s.Brightness != old.Brightness {
		if err := f.display.SetBacklight(s.Brightness); err != nil {
			return fmt.Errorf("setting brightness: %w", err)
		}
	}
	if s.drawing() != old.drawing() {
		f.hasShown = false
	}
	if s.Debug && !old.Debug {
		f.debugTime = Reading{}
	}
	log.Info(log.CatClock, "settings applied", "brightness", s.Brightness, "show_date", s.ShowDate, "debug", s.Debug)
	return nil
}

// Read returns the time to show. In debug mode every call advances the
// hour and the minute by one.
func (f *Face) Read() Reading {
	if f.settings.Debug {
		f.debugTime = Reading{
			Hour:   (f.debugTime.Hour + 1) % 24,
			Minute: (f.debugTime.Minute + 1) % 60,
		}
		return f.debugTime
	}
	now := f.now()
	return Reading{Hour: now.Hour(), Minute: now.Minute()}
}

// Tick reads the time and, when it differs from what is shown, clears the
// screen and draws it. It reports whether it redrew.
func (f *Face) Tick() (bool, error) {
	r := f.Read()
	if f.hasShown && r == f.shown {
		return false, nil
	}

	if err := f.display.Clear(); err != nil {
		return false, fmt.Errorf("clearing clock face: %w", err)
	}
	if err := f.Draw(r); err != nil {
		return false, err
	}
	return true, nil
}

// element is one piece of text on the face.
type element struct {
	row, col, size int
	color          protocol.Color
	text           string
}

// Draw writes r on the face without clearing it first.
func (f *Face) Draw(r Reading) error {
	s := f.settings
	parts := []element{
		{hourRow, hourCol, hourSize, s.HourColor, fmt.Sprintf("%2d", r.Hour12())},
		{minuteRow, minuteCol, minuteSize, s.MinuteColor, fmt.Sprintf("%02d", r.Minute)},
		{ampmRow, ampmCol, ampmSize, s.AmPmColor, r.Meridiem()},
	}
	lines := []string{r.String()}
	if s.ShowDate {
		date := f.now().Format(dateLayout)
		parts = append(parts, element{dateRow, dateCol, dateSize, s.DateColor, date})
		lines = append(lines, date)
	}

	for _, p := range parts {
		if err := f.display.MoveCursorTo(p.row, p.col); err != nil {
			return err
		}
		if err := f.display.SetTextSize(p.size); err != nil {
			return err
		}
		if err := f.display.SetForeground(p.color); err != nil {
			return err
		}
		if err := f.display.WriteText(p.text); err != nil {
			return err
		}
	}

	f.shown, f.hasShown = r, true
	log.Debug(log.CatClock, "drew", "time", r.String())
	if f.pub != nil {
		f.pub.Publish(pubsub.UpdatedEvent, f.display.Snapshot("clock", lines))
	}
	return nil
}

// Run ticks every refresh until ctx is done, applying settings received on
// updates between ticks. It returns nil when ctx is cancelled.
func (f *Face) Run(ctx context.Context, refresh time.Duration, updates <-chan Settings) error {
	if err := f.Start(); err != nil {
		return err
	}

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if err := f.Apply(s); err != nil {
				log.ErrorErr(log.CatClock, "rejected settings", err)
				continue
			}
			if _, err := f.Tick(); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := f.Tick(); err != nil {
				return err
			}
		}
	}
}
