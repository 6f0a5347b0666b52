package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/lcdterm/internal/log"
)

// Printer is a scrolling line display, such as scrollback.Terminal.
type Printer interface {
	PrintLn(line string) error
	Columns() int
}

// Ticker prints a station's report line by line, fetching a fresh report
// each time it reaches the end.
type Ticker struct {
	printer Printer
	source  Source
	station string

	lines []string
	next  int
}

// NewTicker returns a Ticker for station.
func NewTicker(p Printer, src Source, station string) (*Ticker, error) {
	if station == "" {
		return nil, ErrNoStation
	}
	return &Ticker{printer: p, source: src, station: station}, nil
}

// Tick prints the next line of the report. A failed fetch prints a notice
// and is retried on the next tick; only display errors are returned.
func (t *Ticker) Tick(ctx context.Context) error {
	if t.next >= len(t.lines) {
		report, err := t.source.Report(ctx, t.station)
		if err != nil {
			log.ErrorErr(log.CatWeather, "fetching report", err, "station", t.station)
			return t.printer.PrintLn(fmt.Sprintf("%s: no report", t.station))
		}
		t.lines = Wrap(report, t.printer.Columns())
		t.next = 0
		log.Debug(log.CatWeather, "new report", "station", t.station, "lines", len(t.lines))
	}

	line := t.lines[t.next]
	t.next++
	return t.printer.PrintLn(line)
}

// Run ticks every interval until ctx is done.
func (t *Ticker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := t.Tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Wrap word-wraps report to cols and returns its lines. Words longer than a
// row are left whole for the panel to wrap. Blank lines inside the report
// are kept; an empty report is one blank line.
func Wrap(report string, cols int) []string {
	report = strings.TrimRight(strings.ReplaceAll(report, "\r\n", "\n"), "\n")
	if cols > 0 {
		report = wordwrap.String(report, cols)
	}
	lines := strings.Split(report, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}
