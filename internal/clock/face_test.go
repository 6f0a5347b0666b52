package clock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/lcdterm/internal/link"
	"github.com/zjrosen/lcdterm/internal/protocol"
	"github.com/zjrosen/lcdterm/internal/pubsub"
	"github.com/zjrosen/lcdterm/internal/screen"
	"github.com/zjrosen/lcdterm/internal/testutil"
)

const clearSeq = "\x1bc\x1b[2J\x1b[H\x1b[40m\x1b[37m"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestFace(t *testing.T, s Settings, opts ...Option) (*Face, *link.Recorder, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2026, 10, 19, 13, 5, 0, 0, time.Local)}
	d, rec := testutil.NewPanel(t).Build()
	f, err := NewFace(d, s, append([]Option{WithNow(clk.now)}, opts...)...)
	require.NoError(t, err)
	return f, rec, clk
}

func TestReading(t *testing.T) {
	tests := []struct {
		r        Reading
		hour12   int
		meridiem string
		text     string
	}{
		{Reading{0, 0}, 12, "AM", "12:00 AM"},
		{Reading{9, 7}, 9, "AM", " 9:07 AM"},
		{Reading{12, 30}, 12, "PM", "12:30 PM"},
		{Reading{13, 5}, 1, "PM", " 1:05 PM"},
		{Reading{23, 59}, 11, "PM", "11:59 PM"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.hour12, tt.r.Hour12(), tt.text)
		require.Equal(t, tt.meridiem, tt.r.Meridiem(), tt.text)
		require.Equal(t, tt.text, tt.r.String())
	}
}

func TestFace_TickDrawsLayout(t *testing.T) {
	f, rec, _ := newTestFace(t, DefaultSettings())

	drew, err := f.Tick()
	require.NoError(t, err)
	require.True(t, drew)

	want := clearSeq +
		"\x1b[0;33H\x1b[18s\x1b[31m 1" +
		"\x1b[217;33H\x1b[8s\x1b[32m05" +
		"\x1b[217;130H\x1b[4s\x1b[37mPM"
	require.Equal(t, want, rec.Output())
}

func TestFace_TickSkipsUnchangedMinute(t *testing.T) {
	f, rec, clk := newTestFace(t, DefaultSettings())

	_, err := f.Tick()
	require.NoError(t, err)
	rec.Reset()

	clk.t = clk.t.Add(40 * time.Second)
	drew, err := f.Tick()
	require.NoError(t, err)
	require.False(t, drew)
	require.Empty(t, rec.Ops)

	clk.t = clk.t.Add(time.Minute)
	drew, err = f.Tick()
	require.NoError(t, err)
	require.True(t, drew)
	require.Contains(t, rec.Output(), "\x1b[32m06")
}

func TestFace_ShowDate(t *testing.T) {
	s := DefaultSettings()
	s.ShowDate = true
	f, rec, _ := newTestFace(t, s)

	_, err := f.Tick()
	require.NoError(t, err)
	require.Contains(t, rec.Output(), "\x1b[0;200H\x1b[2s\x1b[36mMon Oct 19")
}

func TestFace_DebugClockAdvancesEachRead(t *testing.T) {
	s := DefaultSettings()
	s.Debug = true
	f, _, _ := newTestFace(t, s)

	require.Equal(t, Reading{1, 1}, f.Read())
	require.Equal(t, Reading{2, 2}, f.Read())
	for i := 0; i < 21; i++ {
		f.Read()
	}
	require.Equal(t, Reading{0, 24}, f.Read())
}

func TestFace_DebugClockIsPerFace(t *testing.T) {
	s := DefaultSettings()
	s.Debug = true
	a, _, _ := newTestFace(t, s)
	b, _, _ := newTestFace(t, s)

	a.Read()
	a.Read()
	require.Equal(t, Reading{1, 1}, b.Read())
}

func TestFace_DebugClockRedrawsEveryTick(t *testing.T) {
	s := DefaultSettings()
	s.Debug = true
	f, _, _ := newTestFace(t, s)

	for i := 0; i < 3; i++ {
		drew, err := f.Tick()
		require.NoError(t, err)
		require.True(t, drew)
	}
}

func TestFace_StartSetsBrightness(t *testing.T) {
	f, rec, _ := newTestFace(t, DefaultSettings())

	require.NoError(t, f.Start())
	require.Equal(t, "\x1b[50q", rec.Writes()[0])
}

func TestFace_ApplyBrightnessOnly(t *testing.T) {
	f, rec, _ := newTestFace(t, DefaultSettings())
	_, err := f.Tick()
	require.NoError(t, err)
	rec.Reset()

	s := DefaultSettings()
	s.Brightness = 200
	require.NoError(t, f.Apply(s))
	require.Equal(t, "\x1b[200q", rec.Output())

	drew, err := f.Tick()
	require.NoError(t, err)
	require.False(t, drew, "brightness does not need a redraw")
}

func TestFace_ApplyColorForcesRedraw(t *testing.T) {
	f, rec, _ := newTestFace(t, DefaultSettings())
	_, err := f.Tick()
	require.NoError(t, err)
	rec.Reset()

	s := DefaultSettings()
	s.HourColor = protocol.Magenta
	require.NoError(t, f.Apply(s))
	require.Empty(t, rec.Ops)

	drew, err := f.Tick()
	require.NoError(t, err)
	require.True(t, drew)
	require.Contains(t, rec.Output(), "\x1b[35m 1")
}

func TestFace_ApplyRejectsInvalid(t *testing.T) {
	f, rec, _ := newTestFace(t, DefaultSettings())

	s := DefaultSettings()
	s.Brightness = 0
	require.ErrorIs(t, f.Apply(s), protocol.ErrInvalidArgument)
	require.Equal(t, 50, f.Settings().Brightness)
	require.Empty(t, rec.Ops)
}

func TestNewFace_RejectsInvalid(t *testing.T) {
	s := DefaultSettings()
	s.DateColor = protocol.Color(9)
	d, _ := testutil.NewPanel(t).Build()
	_, err := NewFace(d, s)
	require.ErrorIs(t, err, protocol.ErrInvalidArgument)
}

func TestSettings_Validate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.Brightness = 256
	require.ErrorIs(t, s.Validate(), protocol.ErrInvalidArgument)

	s = DefaultSettings()
	s.MinuteColor = protocol.Color(-1)
	require.ErrorIs(t, s.Validate(), protocol.ErrInvalidArgument)
}

type snapshots struct {
	got []screen.Snapshot
}

func (s *snapshots) Publish(_ pubsub.EventType, snap screen.Snapshot) {
	s.got = append(s.got, snap)
}

func TestFace_PublishesSnapshot(t *testing.T) {
	pub := &snapshots{}
	s := DefaultSettings()
	s.ShowDate = true
	f, _, _ := newTestFace(t, s, WithPublisher(pub))

	_, err := f.Tick()
	require.NoError(t, err)

	require.Len(t, pub.got, 1)
	require.Equal(t, "clock", pub.got[0].Title)
	require.Equal(t, []string{" 1:05 PM", "Mon Oct 19"}, pub.got[0].Lines)
}

func TestFace_TransportErrorStopsTick(t *testing.T) {
	f, rec, _ := newTestFace(t, DefaultSettings())
	rec.FailWritesAfter(0, errors.New("unplugged"))

	drew, err := f.Tick()
	require.ErrorIs(t, err, link.ErrTransport)
	require.False(t, drew)

	rec.FailWritesAfter(-1, nil)
	drew, err = f.Tick()
	require.NoError(t, err)
	require.True(t, drew, "a failed draw is retried on the next tick")
}

func TestFace_RunAppliesUpdatesUntilCancelled(t *testing.T) {
	f, rec, _ := newTestFace(t, DefaultSettings())
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan Settings)
	done := make(chan error, 1)

	go func() { done <- f.Run(ctx, time.Hour, updates) }()

	s := DefaultSettings()
	s.Brightness = 9
	updates <- s
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		require.Fail(t, "Run did not return after cancel")
	}

	require.Equal(t, 9, f.Settings().Brightness)
	require.Contains(t, rec.Writes(), "\x1b[9q")
}
