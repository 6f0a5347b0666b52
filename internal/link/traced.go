package link

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/lcdterm/internal/tracing"
)

// Compile-time check that TracedChannel implements Channel.
var _ Channel = (*TracedChannel)(nil)

// TracedChannel records a span for every write and read on the wrapped channel.
type TracedChannel struct {
	next       Channel
	tracer     trace.Tracer
	session    string
	sleepSpans bool
}

// TracedOption configures a TracedChannel.
type TracedOption func(*TracedChannel)

// WithSleepSpans also records a span for every pacing delay.
func WithSleepSpans() TracedOption {
	return func(t *TracedChannel) { t.sleepSpans = true }
}

// Traced wraps ch so each operation is recorded with tracer. session is
// attached to every span to group one process run.
func Traced(ch Channel, tracer trace.Tracer, session string, opts ...TracedOption) *TracedChannel {
	t := &TracedChannel{next: ch, tracer: tracer, session: session}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TracedChannel) Write(p []byte) error {
	_, span := t.tracer.Start(context.Background(), tracing.SpanLinkWrite,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.AttrSessionID, t.session),
			attribute.Int(tracing.AttrLinkBytes, len(p)),
		),
	)
	defer span.End()

	if err := t.next.Write(p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (t *TracedChannel) ReadLine() (string, error) {
	_, span := t.tracer.Start(context.Background(), tracing.SpanLinkRead,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String(tracing.AttrSessionID, t.session)),
	)
	defer span.End()

	line, err := t.next.ReadLine()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return line, err
	}
	span.SetAttributes(attribute.String(tracing.AttrLinkResponse, line))
	return line, nil
}

func (t *TracedChannel) Sleep(d time.Duration) {
	if !t.sleepSpans {
		t.next.Sleep(d)
		return
	}
	_, span := t.tracer.Start(context.Background(), tracing.SpanLinkSleep,
		trace.WithAttributes(
			attribute.String(tracing.AttrSessionID, t.session),
			attribute.Float64(tracing.AttrLinkDelayMs, float64(d)/float64(time.Millisecond)),
		),
	)
	defer span.End()
	t.next.Sleep(d)
}

func (t *TracedChannel) Close() error {
	_, span := t.tracer.Start(context.Background(), tracing.SpanLinkClose,
		trace.WithAttributes(attribute.String(tracing.AttrSessionID, t.session)),
	)
	defer span.End()

	if err := t.next.Close(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
