// Package screen drives the serial LCD panel: it paces and chunks writes so the
// panel's small input buffer never overruns, and tracks the cursor, color and
// text-size state needed to lay text out the way the panel will show it.
package screen

import (
	"time"

	"github.com/zjrosen/lcdterm/internal/link"
	"github.com/zjrosen/lcdterm/internal/log"
)

const (
	// DefaultMaxChunk is the largest write the panel accepts without artifacts.
	DefaultMaxChunk = 25
	// DefaultPacePerUnit is the drain time per byte on the serial link.
	DefaultPacePerUnit = 4500 * time.Microsecond
)

// Writer sends text to a channel in bounded, paced chunks.
type Writer struct {
	ch          link.Channel
	maxChunk    int
	pacePerUnit time.Duration
}

// NewWriter returns a Writer. Non-positive arguments select the defaults.
func NewWriter(ch link.Channel, maxChunk int, pacePerUnit time.Duration) *Writer {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunk
	}
	if pacePerUnit <= 0 {
		pacePerUnit = DefaultPacePerUnit
	}
	return &Writer{ch: ch, maxChunk: maxChunk, pacePerUnit: pacePerUnit}
}

// Write sends text. With split set and text longer than the chunk limit it is
// sent as several chunks (see Split); otherwise as one emission. Every emission
// is followed by a delay proportional to its length. A failed emission returns
// immediately, without its delay and without sending the rest.
func (w *Writer) Write(text string, split bool) error {
	if text == "" {
		return nil
	}

	chunks := []string{text}
	if split {
		chunks = Split(text, w.maxChunk)
	}
	if len(chunks) > 1 {
		log.Debug(log.CatScreen, "split write", "bytes", len(text), "chunks", len(chunks))
	}

	for _, chunk := range chunks {
		if err := w.ch.Write([]byte(chunk)); err != nil {
			return err
		}
		w.ch.Sleep(w.Pace(len(chunk)))
	}
	return nil
}

// Pace returns the delay owed for n bytes.
func (w *Writer) Pace(n int) time.Duration {
	return time.Duration(n) * w.pacePerUnit
}
