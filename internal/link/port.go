package link

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/zjrosen/lcdterm/internal/log"
)

// Compile-time check that Port implements Channel.
var _ Channel = (*Port)(nil)

// Config holds serial port settings and the open/close protocol timings.
type Config struct {
	Name        string
	BaudRate    int
	ReadTimeout time.Duration // 0 blocks forever

	// SettleDelay is waited after the ready line on open.
	SettleDelay time.Duration
	// Shutdown is written on Close before the port is released.
	Shutdown      []byte
	ShutdownDelay time.Duration
}

// DefaultConfig returns the settings the panel ships with.
func DefaultConfig(name string) Config {
	return Config{
		Name:          name,
		BaudRate:      115200,
		SettleDelay:   2 * time.Second,
		ShutdownDelay: 100 * time.Millisecond,
	}
}

// Port is a Channel over a serial device.
type Port struct {
	port  serial.Port
	cfg   Config
	sleep func(time.Duration)
}

// Open opens the serial device in raw 8N1 mode and performs the startup
// handshake. The port is closed again if the handshake fails.
func Open(cfg Config) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	sp, err := serial.Open(cfg.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open serial port %s: %w", ErrTransport, cfg.Name, err)
	}

	if cfg.ReadTimeout > 0 {
		if err := sp.SetReadTimeout(cfg.ReadTimeout); err != nil {
			_ = sp.Close()
			return nil, fmt.Errorf("%w: set read timeout: %w", ErrTransport, err)
		}
	}

	p := NewPort(sp, cfg)
	if err := p.Handshake(); err != nil {
		_ = sp.Close()
		return nil, err
	}
	return p, nil
}

// NewPort wraps an already opened serial port. No handshake is performed.
func NewPort(sp serial.Port, cfg Config) *Port {
	return &Port{port: sp, cfg: cfg, sleep: time.Sleep}
}

// Handshake waits for the panel's ready line, discards it, then waits the
// settle delay. Writes sent before this completes are lost by the firmware.
func (p *Port) Handshake() error {
	log.Debug(log.CatSerial, "waiting for device ready line", "port", p.cfg.Name)
	line, err := p.ReadLine()
	if err != nil {
		return fmt.Errorf("startup handshake: %w", err)
	}
	log.Debug(log.CatSerial, "device ready", "line", line, "settle", p.cfg.SettleDelay)
	p.sleep(p.cfg.SettleDelay)
	return nil
}

func (p *Port) Write(b []byte) error {
	if _, err := p.port.Write(b); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrTransport, p.cfg.Name, err)
	}
	return nil
}

func (p *Port) ReadLine() (string, error) {
	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := p.port.Read(buf)
		if err != nil {
			return line.String(), fmt.Errorf("%w: read %s: %w", ErrTransport, p.cfg.Name, err)
		}
		if n == 0 {
			// go.bug.st/serial reports a read timeout as a zero-length read.
			return line.String(), fmt.Errorf("%w: read %s: timed out", ErrTransport, p.cfg.Name)
		}
		switch buf[0] {
		case '\n':
			return line.String(), nil
		case '\r':
		default:
			line.WriteByte(buf[0])
		}
	}
}

func (p *Port) Sleep(d time.Duration) {
	p.sleep(d)
}

// Close writes the shutdown sequence, waits for it to drain and releases the
// port. The port is released even when the shutdown write fails.
func (p *Port) Close() error {
	var writeErr error
	if len(p.cfg.Shutdown) > 0 {
		writeErr = p.Write(p.cfg.Shutdown)
		if writeErr == nil {
			p.sleep(p.cfg.ShutdownDelay)
		}
	}
	closeErr := p.port.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("%w: close %s: %w", ErrTransport, p.cfg.Name, closeErr)
	}
	log.Debug(log.CatSerial, "port closed", "port", p.cfg.Name)
	return errors.Join(writeErr, closeErr)
}
