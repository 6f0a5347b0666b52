package tracing

// Span names for link operations.
const (
	SpanLinkWrite = "link.write"
	SpanLinkRead  = "link.read_line"
	SpanLinkClose = "link.close"
	SpanLinkSleep = "link.sleep"
)

// Span attribute keys.
const (
	AttrSessionID    = "session.id"
	AttrLinkBytes    = "link.bytes"
	AttrLinkResponse = "link.response"
	AttrLinkDelayMs  = "link.delay_ms"
)
