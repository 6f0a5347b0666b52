package tracing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var _ sdktrace.SpanExporter = (*FileExporter)(nil)

// errExporterClosed is returned by ExportSpans after Shutdown.
var errExporterClosed = errors.New("trace file exporter is shut down")

// FileExporter appends one JSON line per link operation, giving a replayable
// log of the traffic sent to the panel.
type FileExporter struct {
	mu  sync.Mutex
	out *os.File
}

// NewFileExporter opens path for appending, creating parent directories.
func NewFileExporter(path string) (*FileExporter, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- user configured path
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return &FileExporter{out: f}, nil
}

// LinkRecord is one line of the trace file.
type LinkRecord struct {
	At         time.Time `json:"at"`
	Op         string    `json:"op"` // span name without the "link." prefix
	Session    string    `json:"session,omitempty"`
	Bytes      int64     `json:"bytes,omitempty"`
	DelayMs    float64   `json:"delay_ms,omitempty"`
	Response   string    `json:"response,omitempty"`
	DurationMs float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

func (e *FileExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out == nil {
		return errExporterClosed
	}

	enc := json.NewEncoder(e.out)
	for _, span := range spans {
		if err := enc.Encode(toLinkRecord(span)); err != nil {
			return fmt.Errorf("encode link record: %w", err)
		}
	}
	return nil
}

func (e *FileExporter) Shutdown(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out == nil {
		return nil
	}
	err := e.out.Close()
	e.out = nil
	return err
}

func toLinkRecord(span sdktrace.ReadOnlySpan) LinkRecord {
	rec := LinkRecord{
		At:         span.StartTime().UTC(),
		Op:         strings.TrimPrefix(span.Name(), "link."),
		DurationMs: float64(span.EndTime().Sub(span.StartTime()).Microseconds()) / 1000,
	}
	for _, kv := range span.Attributes() {
		applyAttribute(&rec, kv)
	}
	if span.Status().Code == codes.Error {
		rec.Error = span.Status().Description
		if rec.Error == "" {
			rec.Error = "error"
		}
	}
	return rec
}

func applyAttribute(rec *LinkRecord, kv attribute.KeyValue) {
	switch string(kv.Key) {
	case AttrSessionID:
		rec.Session = kv.Value.AsString()
	case AttrLinkBytes:
		rec.Bytes = kv.Value.AsInt64()
	case AttrLinkDelayMs:
		rec.DelayMs = kv.Value.AsFloat64()
	case AttrLinkResponse:
		rec.Response = kv.Value.AsString()
	}
}
