// Package link provides the command channel to the LCD panel: a blocking,
// bidirectional byte stream that can also hold the caller for a pacing delay.
package link

import (
	"errors"
	"time"
)

// ErrTransport wraps every failure to write to or read from the channel.
var ErrTransport = errors.New("transport error")

// Channel is the byte stream the display driver writes commands to.
//
// Implementations are not safe for concurrent use; one writer at a time.
type Channel interface {
	// Write sends p in one emission.
	Write(p []byte) error
	// ReadLine blocks until a newline-terminated line arrives and returns it
	// without the line terminator. Carriage returns are dropped.
	ReadLine() (string, error)
	// Sleep blocks the caller for d, letting the link drain.
	Sleep(d time.Duration)
	// Close releases the channel.
	Close() error
}
