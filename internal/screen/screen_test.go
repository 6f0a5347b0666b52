package screen

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/lcdterm/internal/link"
	"github.com/zjrosen/lcdterm/internal/protocol"
)

// sevenColumns is a panel 7 glyphs wide and 7 rows tall at text size 1.
func sevenColumns() Options {
	opts := DefaultOptions()
	opts.Geometry = Geometry{Width: 42, Height: 56, GlyphWidth: 6, GlyphHeight: 8}
	opts.TextSize = 1
	opts.Rotation = 1
	return opts
}

func newTestScreen(t *testing.T, opts Options, responses ...string) (*Screen, *link.Recorder) {
	t.Helper()
	rec := link.NewRecorder(responses...)
	return New(rec, protocol.Standard{}, opts), rec
}

func TestScreen_DefaultGeometry(t *testing.T) {
	s, _ := newTestScreen(t, DefaultOptions())

	require.Equal(t, 2, s.TextSize())
	require.Equal(t, protocol.Horizontal, s.Orientation())
	require.Equal(t, 26, s.Columns())
	require.Equal(t, 15, s.Rows())
	require.Equal(t, protocol.White, s.Foreground())
	require.Equal(t, protocol.Black, s.Background())
}

func TestScreen_SetTextSizeChangesLayout(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())

	require.NoError(t, s.SetTextSize(4))
	require.Equal(t, "\x1b[4s", rec.Output())
	require.Equal(t, 13, s.Columns())
	require.Equal(t, 7, s.Rows())
	require.Equal(t, 0, s.CharsOnLine(), "control sequences are not visible text")
}

func TestScreen_GeometryChangeRewrapsColumn(t *testing.T) {
	s, _ := newTestScreen(t, DefaultOptions())

	require.NoError(t, s.WriteText(strings.Repeat("x", 25)))
	require.Equal(t, 25, s.CharsOnLine())

	require.NoError(t, s.SetTextSize(4))
	require.Equal(t, 13, s.Columns())
	require.Equal(t, 12, s.CharsOnLine())

	require.NoError(t, s.SetOrientation(2))
	require.Equal(t, 10, s.Columns())
	require.Equal(t, 2, s.CharsOnLine())
}

func TestScreen_SetTextSizeRejectsZero(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())

	err := s.SetTextSize(0)
	require.ErrorIs(t, err, protocol.ErrInvalidArgument)
	require.Empty(t, rec.Ops, "nothing is written for a rejected argument")
	require.Equal(t, 2, s.TextSize())
}

func TestScreen_SetOrientation(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())

	require.NoError(t, s.SetOrientation(2))
	require.Equal(t, protocol.Vertical, s.Orientation())
	require.Equal(t, 20, s.Columns())
	require.Equal(t, 20, s.Rows())
	require.Equal(t, "\x1b[2r", rec.Output())
	require.Equal(t, []time.Duration{time.Millisecond}, rec.Sleeps())

	require.NoError(t, s.SetOrientation(3))
	require.Equal(t, protocol.Horizontal, s.Orientation())

	require.ErrorIs(t, s.SetOrientation(4), protocol.ErrInvalidArgument)
}

func TestScreen_ColorValidation(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())

	require.ErrorIs(t, s.SetForeground(protocol.Color(8)), protocol.ErrInvalidArgument)
	require.ErrorIs(t, s.SetBackground(protocol.Color(-1)), protocol.ErrInvalidArgument)
	require.ErrorIs(t, s.SetBacklight(256), protocol.ErrInvalidArgument)
	require.Empty(t, rec.Ops)

	require.NoError(t, s.SetBacklight(255))
	require.Equal(t, "\x1b[255q", rec.Output())
}

func TestScreen_WriteLinePadsToRowEnd(t *testing.T) {
	s, rec := newTestScreen(t, sevenColumns())
	require.Equal(t, 7, s.Columns())

	require.NoError(t, s.WriteLine("foo"))
	require.Equal(t, "foo    ", rec.Output())
	require.Equal(t, 0, s.CharsOnLine())

	rec.Reset()
	require.NoError(t, s.WriteLine("barbaz1"))
	require.Equal(t, "barbaz1", rec.Output(), "a full line gets no padding")
	require.Equal(t, 0, s.CharsOnLine())
}

func TestScreen_WriteLineAccountsForTextAlreadyOnLine(t *testing.T) {
	s, rec := newTestScreen(t, sevenColumns())

	require.NoError(t, s.WriteText("ab"))
	require.Equal(t, 2, s.CharsOnLine())
	require.NoError(t, s.WriteLine("cd"))
	require.Equal(t, "abcd   ", rec.Output())
}

func TestScreen_WriteTextWrapsCount(t *testing.T) {
	s, _ := newTestScreen(t, sevenColumns())

	require.NoError(t, s.WriteText("123456789"))
	require.Equal(t, 2, s.CharsOnLine())
}

func TestScreen_HomeReappliesColors(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())

	require.NoError(t, s.SetForeground(protocol.Red))
	require.NoError(t, s.SetBackground(protocol.Blue))
	require.NoError(t, s.WriteText("hi"))
	rec.Reset()

	require.NoError(t, s.Home())
	require.Equal(t, "\x1b[H\x1b[44m\x1b[31m", rec.Output())
	require.Equal(t, 0, s.CharsOnLine())

	rec.Reset()
	require.NoError(t, s.Home())
	require.Equal(t, "\x1b[H\x1b[44m\x1b[31m", rec.Output(), "colors are sent again on every home")
}

func TestScreen_LineBreak(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())

	require.NoError(t, s.WriteText("abc"))
	rec.Reset()
	require.NoError(t, s.LineBreak())

	require.Equal(t, "\n\r", rec.Output())
	require.Equal(t, []time.Duration{time.Millisecond}, rec.Sleeps())
	require.Equal(t, 0, s.CharsOnLine())
}

func TestScreen_ClearRestoresDefaults(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())

	require.NoError(t, s.SetTextSize(8))
	require.NoError(t, s.SetForeground(protocol.Green))
	require.NoError(t, s.WriteText("12"))
	rec.Reset()

	require.NoError(t, s.Clear())

	require.Equal(t, "\x1bc\x1b[2J\x1b[H\x1b[40m\x1b[37m", rec.Output())
	require.Equal(t, 100*time.Millisecond, rec.Sleeps()[0], "reset delay")
	require.Equal(t, 50*time.Millisecond, rec.Sleeps()[1], "erase delay")
	require.Equal(t, 2, s.TextSize())
	require.Equal(t, protocol.White, s.Foreground())
	require.Equal(t, 0, s.CharsOnLine())
}

func TestScreen_MoveCursorTo(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())

	require.NoError(t, s.MoveCursorTo(217, 33))
	require.Equal(t, "\x1b[217;33H", rec.Output())
	// one pace for the chunk, one base delay
	require.Equal(t, []time.Duration{9 * DefaultPacePerUnit, time.Millisecond}, rec.Sleeps())

	require.ErrorIs(t, s.MoveCursorTo(-1, 0), protocol.ErrInvalidArgument)
}

func TestScreen_QueryCursor(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions(), "row=4, col=9")

	row, col, err := s.QueryCursor()
	require.NoError(t, err)
	require.Equal(t, 4, row)
	require.Equal(t, 9, col)
	require.Equal(t, "\x1b[6n", rec.Output())
}

func TestScreen_QueryCursorMalformed(t *testing.T) {
	s, _ := newTestScreen(t, DefaultOptions(), "garbage")

	_, _, err := s.QueryCursor()
	require.ErrorIs(t, err, protocol.ErrProtocol)
}

func TestScreen_QueryCursorChannelExhausted(t *testing.T) {
	s, _ := newTestScreen(t, DefaultOptions())

	_, _, err := s.QueryCursor()
	require.ErrorIs(t, err, link.ErrTransport)
}

func TestScreen_TransportErrorPropagates(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())
	rec.FailWritesAfter(0, errors.New("no device"))

	require.ErrorIs(t, s.WriteText("x"), link.ErrTransport)
	require.ErrorIs(t, s.Clear(), link.ErrTransport)
	require.ErrorIs(t, s.Home(), link.ErrTransport)
}

func TestScreen_EraseRows(t *testing.T) {
	s, rec := newTestScreen(t, sevenColumns())

	require.NoError(t, s.EraseRows(2, 1))
	require.Equal(t, "\x1b[H\x1b[40m\x1b[37m\n\r\n\r       ", rec.Output())
}

func TestScreen_FrameBuffersUntilEnd(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())

	require.NoError(t, s.BeginFrame())
	require.True(t, s.Batching())
	require.NoError(t, s.WriteText("hello"))
	require.NoError(t, s.LineBreak())
	require.NoError(t, s.MoveCursorTo(1, 1))
	require.Empty(t, rec.Ops, "nothing is sent or paced while batching")

	require.NoError(t, s.EndFrame())
	require.False(t, s.Batching())
	require.Equal(t, []string{"hello\n\r\x1b[1;1H"}, rec.Writes())
	require.Equal(t, []time.Duration{13 * DefaultPacePerUnit}, rec.Sleeps())
}

func TestScreen_FrameStateErrors(t *testing.T) {
	s, _ := newTestScreen(t, DefaultOptions(), "row=0, col=0")

	require.ErrorIs(t, s.EndFrame(), ErrInvalidState)

	require.NoError(t, s.BeginFrame())
	require.ErrorIs(t, s.BeginFrame(), ErrInvalidState)

	_, _, err := s.QueryCursor()
	require.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, s.EndFrame())
}

func TestScreen_FrameDiscardedOnFailedFlush(t *testing.T) {
	s, rec := newTestScreen(t, DefaultOptions())
	rec.FailWritesAfter(0, errors.New("down"))

	require.NoError(t, s.BeginFrame())
	require.NoError(t, s.WriteText("lost"))
	require.ErrorIs(t, s.EndFrame(), link.ErrTransport)

	rec.FailWritesAfter(-1, nil)
	require.NoError(t, s.BeginFrame())
	require.NoError(t, s.EndFrame())
	require.Empty(t, rec.Writes())
}

// TestProperty_WriteLineEndsOnRowBoundary checks the column count stays
// below the row width after every WriteLine.
func TestProperty_WriteLineEndsOnRowBoundary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New(link.NewRecorder(), protocol.Standard{}, DefaultOptions())
		if rapid.Bool().Draw(t, "resize") {
			_ = s.SetTextSize(rapid.IntRange(1, 6).Draw(t, "size"))
		}

		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "prefix") {
				_ = s.WriteText(rapid.StringMatching(`[a-z]{0,40}`).Draw(t, "prefixText"))
			}
			text := rapid.StringMatching(`[a-z ]{0,80}`).Draw(t, "text")
			require.NoError(t, s.WriteLine(text))
			require.Less(t, s.CharsOnLine(), s.Columns())
			require.Equal(t, 0, s.CharsOnLine())
		}
	})
}

type screenOp func(s *Screen) error

func drawOp(t *rapid.T) screenOp {
	switch rapid.IntRange(0, 7).Draw(t, "op") {
	case 0:
		text := rapid.StringMatching(`[a-z0-9 ]{0,60}`).Draw(t, "text")
		return func(s *Screen) error { return s.WriteText(text) }
	case 1:
		text := rapid.StringMatching(`[a-z0-9 ]{0,60}`).Draw(t, "line")
		return func(s *Screen) error { return s.WriteLine(text) }
	case 2:
		c := protocol.Color(rapid.IntRange(0, 7).Draw(t, "fg"))
		return func(s *Screen) error { return s.SetForeground(c) }
	case 3:
		return func(s *Screen) error { return s.LineBreak() }
	case 4:
		row := rapid.IntRange(0, 300).Draw(t, "row")
		col := rapid.IntRange(0, 300).Draw(t, "col")
		return func(s *Screen) error { return s.MoveCursorTo(row, col) }
	case 5:
		return func(s *Screen) error { return s.Home() }
	case 6:
		n := rapid.IntRange(1, 4).Draw(t, "size")
		return func(s *Screen) error { return s.SetTextSize(n) }
	default:
		return func(s *Screen) error { return s.EraseScreen() }
	}
}

// TestProperty_FrameOutputMatchesStreaming checks that batching changes only
// timing: the bytes on the wire and the tracked state are the same.
func TestProperty_FrameOutputMatchesStreaming(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ops := rapid.SliceOfN(rapid.Custom(drawOp), 0, 25).Draw(t, "ops")

		streamRec := link.NewRecorder()
		streamed := New(streamRec, protocol.Standard{}, DefaultOptions())
		for _, op := range ops {
			require.NoError(t, op(streamed))
		}

		frameRec := link.NewRecorder()
		framed := New(frameRec, protocol.Standard{}, DefaultOptions())
		require.NoError(t, framed.BeginFrame())
		for _, op := range ops {
			require.NoError(t, op(framed))
		}
		require.NoError(t, framed.EndFrame())

		require.Equal(t, streamRec.Output(), frameRec.Output())
		require.Equal(t, streamed.CharsOnLine(), framed.CharsOnLine())
		require.Equal(t, streamed.TextSize(), framed.TextSize())
		for _, w := range frameRec.Writes() {
			require.LessOrEqual(t, len(w), DefaultMaxChunk)
		}
	})
}

func TestScreen_BlankRowWidth(t *testing.T) {
	s, rec := newTestScreen(t, sevenColumns())
	require.NoError(t, s.WriteText(strings.Repeat(" ", s.Columns())))
	require.Equal(t, 0, s.CharsOnLine())
	require.Len(t, rec.Output(), 7)
}
