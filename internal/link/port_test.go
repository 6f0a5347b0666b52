package link

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakeSerial is an in-memory serial.Port.
type fakeSerial struct {
	in       *bytes.Reader
	out      bytes.Buffer
	writeErr error
	closed   bool
}

func newFakeSerial(input string) *fakeSerial {
	return &fakeSerial{in: bytes.NewReader([]byte(input))}
}

func (f *fakeSerial) SetMode(*serial.Mode) error { return nil }

func (f *fakeSerial) Read(p []byte) (int, error) {
	if f.in.Len() == 0 {
		// Mirrors a read timeout on the real port.
		return 0, nil
	}
	return f.in.Read(p)
}

func (f *fakeSerial) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.out.Write(p)
}

func (f *fakeSerial) Drain() error { return nil }
func (f *fakeSerial) ResetInputBuffer() error { return nil }
func (f *fakeSerial) ResetOutputBuffer() error { return nil }
func (f *fakeSerial) SetDTR(bool) error { return nil }
func (f *fakeSerial) SetRTS(bool) error { return nil }
func (f *fakeSerial) GetModemStatusBits() (*serial.ModemStatusBits, error) { return &serial.ModemStatusBits{}, nil }
func (f *fakeSerial) SetReadTimeout(time.Duration) error { return nil }
func (f *fakeSerial) Break(time.Duration) error { return nil }

func (f *fakeSerial) Close() error {
	f.closed = true
	return nil
}

func newTestPort(sp serial.Port, cfg Config) (*Port, *[]time.Duration) {
	var slept []time.Duration
	p := NewPort(sp, cfg)
	p.sleep = func(d time.Duration) { slept = append(slept, d) }
	return p, &slept
}

func TestPort_ReadLine_StripsCarriageReturns(t *testing.T) {
	p, _ := newTestPort(newFakeSerial("row=1, col=2\r\nnext\n"), DefaultConfig("/dev/fake"))

	line, err := p.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "row=1, col=2", line)

	line, err = p.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "next", line)
}

func TestPort_ReadLine_Exhausted(t *testing.T) {
	p, _ := newTestPort(newFakeSerial("partial"), DefaultConfig("/dev/fake"))

	line, err := p.ReadLine()
	require.ErrorIs(t, err, ErrTransport)
	require.Equal(t, "partial", line)
}

func TestPort_Handshake_ReadsLineThenSettles(t *testing.T) {
	cfg := DefaultConfig("/dev/fake")
	p, slept := newTestPort(newFakeSerial("READY\r\nrow=0, col=0\n"), cfg)

	require.NoError(t, p.Handshake())
	require.Equal(t, []time.Duration{cfg.SettleDelay}, *slept)

	// Only the ready line is consumed.
	line, err := p.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "row=0, col=0", line)
}

func TestPort_Handshake_NoReadyLine(t *testing.T) {
	p, slept := newTestPort(newFakeSerial(""), DefaultConfig("/dev/fake"))

	err := p.Handshake()
	require.ErrorIs(t, err, ErrTransport)
	require.Empty(t, *slept, "settle delay must not run when the device never became ready")
}

func TestPort_Write_WrapsTransportError(t *testing.T) {
	sp := newFakeSerial("")
	sp.writeErr = errors.New("device unplugged")
	p, _ := newTestPort(sp, DefaultConfig("/dev/fake"))

	err := p.Write([]byte("abc"))
	require.ErrorIs(t, err, ErrTransport)
	require.Contains(t, err.Error(), "device unplugged")
}

func TestPort_Close_WritesShutdownSequence(t *testing.T) {
	sp := newFakeSerial("")
	cfg := DefaultConfig("/dev/fake")
	cfg.Shutdown = []byte("\x1bc\x1b[2s\x1b[1r\r")
	p, slept := newTestPort(sp, cfg)

	require.NoError(t, p.Close())
	require.Equal(t, "\x1bc\x1b[2s\x1b[1r\r", sp.out.String())
	require.Equal(t, []time.Duration{cfg.ShutdownDelay}, *slept)
	require.True(t, sp.closed)
}

func TestPort_Close_ReleasesPortWhenShutdownFails(t *testing.T) {
	sp := newFakeSerial("")
	sp.writeErr = errors.New("broken pipe")
	cfg := DefaultConfig("/dev/fake")
	cfg.Shutdown = []byte("\x1bc")
	p, slept := newTestPort(sp, cfg)

	err := p.Close()
	require.ErrorIs(t, err, ErrTransport)
	require.True(t, sp.closed, "port must be released on the error path")
	require.Empty(t, *slept)
}
