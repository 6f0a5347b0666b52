package link

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Compile-time check that Recorder implements Channel.
var _ Channel = (*Recorder)(nil)

// OpKind identifies a recorded channel operation.
type OpKind int

const (
	OpWrite OpKind = iota
	OpSleep
	OpRead
)

// Op is one recorded channel operation.
type Op struct {
	Kind  OpKind
	Data  string
	Delay time.Duration
}

// Recorder is an in-memory Channel. It records every write and sleep without
// blocking and replays queued responses to ReadLine. Used by tests and by the
// simulated display.
type Recorder struct {
	Ops []Op

	// Limit keeps only the newest Limit operations when positive, so a
	// long-running simulation does not grow without bound.
	Limit int

	responses []string
	writes    int
	failAfter int // fail writes once this many succeeded; <0 never fails
	failErr   error
	closed    bool
}

// NewRecorder returns a Recorder that answers ReadLine with responses in order.
func NewRecorder(responses ...string) *Recorder {
	return &Recorder{responses: responses, failAfter: -1}
}

// FailWritesAfter makes every write after the first n successful ones fail with err.
func (r *Recorder) FailWritesAfter(n int, err error) {
	r.failAfter = n
	r.failErr = err
}

// Respond queues more ReadLine responses.
func (r *Recorder) Respond(lines ...string) {
	r.responses = append(r.responses, lines...)
}

func (r *Recorder) Write(p []byte) error {
	if r.closed {
		return fmt.Errorf("%w: write on closed recorder", ErrTransport)
	}
	if r.failAfter >= 0 && r.writes >= r.failAfter {
		return fmt.Errorf("%w: %w", ErrTransport, r.failErr)
	}
	r.writes++
	r.record(Op{Kind: OpWrite, Data: string(p)})
	return nil
}

func (r *Recorder) ReadLine() (string, error) {
	if len(r.responses) == 0 {
		return "", fmt.Errorf("%w: %w", ErrTransport, io.EOF)
	}
	line := r.responses[0]
	r.responses = r.responses[1:]
	r.record(Op{Kind: OpRead, Data: line})
	return line, nil
}

func (r *Recorder) Sleep(d time.Duration) {
	r.record(Op{Kind: OpSleep, Delay: d})
}

func (r *Recorder) record(op Op) {
	r.Ops = append(r.Ops, op)
	if r.Limit > 0 && len(r.Ops) > r.Limit {
		r.Ops = append(r.Ops[:0:0], r.Ops[len(r.Ops)-r.Limit:]...)
	}
}

func (r *Recorder) Close() error {
	r.closed = true
	return nil
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	return r.closed
}

// Writes returns the data of every recorded write, in order.
func (r *Recorder) Writes() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Kind == OpWrite {
			out = append(out, op.Data)
		}
	}
	return out
}

// Output returns all written bytes concatenated.
func (r *Recorder) Output() string {
	return strings.Join(r.Writes(), "")
}

// Sleeps returns every recorded delay, in order.
func (r *Recorder) Sleeps() []time.Duration {
	var out []time.Duration
	for _, op := range r.Ops {
		if op.Kind == OpSleep {
			out = append(out, op.Delay)
		}
	}
	return out
}

// TotalSleep sums all recorded delays.
func (r *Recorder) TotalSleep() time.Duration {
	var total time.Duration
	for _, d := range r.Sleeps() {
		total += d
	}
	return total
}

// Reset forgets recorded operations but keeps queued responses.
func (r *Recorder) Reset() {
	r.Ops = nil
	r.writes = 0
}
