// Package scrollback reproduces in software how the panel wraps and scrolls
// lines, so callers know what is on screen without asking the hardware.
package scrollback

import "slices"

// Buffer is the history of logical lines appended by a client. A logical line
// may be longer than a row; the panel wraps it onto as many rows as it needs.
//
// A zero-length line still occupies one blank row, the same as on the panel
// where a line break on an empty row moves the cursor down.
type Buffer struct {
	lines    []string
	maxLines int
}

// NewBuffer returns an empty Buffer keeping at most maxLines lines, dropping
// the oldest first. A non-positive maxLines keeps everything.
func NewBuffer(maxLines int) *Buffer {
	return &Buffer{maxLines: maxLines}
}

// Append adds a line after the newest one.
func (b *Buffer) Append(line string) {
	b.lines = append(b.lines, line)
	if b.maxLines > 0 && len(b.lines) > b.maxLines {
		drop := len(b.lines) - b.maxLines
		b.lines = append(b.lines[:0:0], b.lines[drop:]...)
	}
}

// Len returns the number of lines held.
func (b *Buffer) Len() int { return len(b.lines) }

// Lines returns a copy of the history, oldest first.
func (b *Buffer) Lines() []string {
	return append([]string(nil), b.lines...)
}

// Reset forgets all lines.
func (b *Buffer) Reset() { b.lines = nil }

// VisibleRows returns the rows the panel shows for a screen of rows x cols,
// oldest first. The newest lines fill the screen from the bottom up; when the
// oldest visible line does not fit entirely only its tail rows are shown.
// Rows not covered by any line are returned blank after the newest row.
func (b *Buffer) VisibleRows(rows, cols int) []string {
	if rows <= 0 {
		return nil
	}
	out := make([]string, 0, rows)
	left := rows

	for i := len(b.lines) - 1; i >= 0 && left > 0; i-- {
		parts := wrap(b.lines[i], cols)
		for j := len(parts) - 1; j >= 0 && left > 0; j-- {
			out = append(out, parts[j])
			left--
		}
	}

	slices.Reverse(out)
	for ; left > 0; left-- {
		out = append(out, "")
	}
	return out
}

// PrintableLines returns the newest logical lines that fit entirely on a
// screen of rows x cols, oldest first, followed by one blank line for every
// row left over. A line that would only partly fit ends the walk.
func (b *Buffer) PrintableLines(rows, cols int) []string {
	if rows <= 0 {
		return nil
	}
	var out []string
	left := rows

	for i := len(b.lines) - 1; i >= 0; i-- {
		cost := RowCost(b.lines[i], cols)
		if cost > left {
			break
		}
		out = append(out, b.lines[i])
		left -= cost
	}

	slices.Reverse(out)
	for ; left > 0; left-- {
		out = append(out, "")
	}
	return out
}

// RowCost is the number of rows line occupies at cols columns.
func RowCost(line string, cols int) int {
	if cols <= 0 || len(line) == 0 {
		return 1
	}
	return (len(line) + cols - 1) / cols
}

// wrap cuts line into slices of cols bytes; the last may be shorter.
func wrap(line string, cols int) []string {
	if cols <= 0 || len(line) <= cols {
		return []string{line}
	}
	out := make([]string, 0, RowCost(line, cols))
	for len(line) > cols {
		out = append(out, line[:cols])
		line = line[cols:]
	}
	return append(out, line)
}
