package screen

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/lcdterm/internal/protocol"
)

// Split partitions text into chunks of at most limit bytes, preserving order.
//
// Escape sequences the panel understands are atomic: a CSI, measured with the
// ANSI decoder, or ESC and a single byte is never cut between chunks. Plain text between them is cut at limit bytes and
// then everything is packed greedily. A single escape sequence longer than
// limit is returned as its own, oversize, chunk.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	for _, unit := range splitUnits(text, limit) {
		if cur.Len() > 0 && cur.Len()+len(unit) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(unit)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// splitUnits cuts text into escape sequences and plain spans no longer than limit.
func splitUnits(text string, limit int) []string {
	var units []string
	for len(text) > 0 {
		if text[0] == protocol.ESC {
			n := sequenceLen(text)
			units = append(units, text[:n])
			text = text[n:]
			continue
		}

		end := strings.IndexByte(text, protocol.ESC)
		if end < 0 {
			end = len(text)
		}
		plain := text[:end]
		for len(plain) > limit {
			units = append(units, plain[:limit])
			plain = plain[limit:]
		}
		units = append(units, plain)
		text = text[end:]
	}
	return units
}

// sequenceLen returns the byte length of the escape sequence at the start of
// s. Only the panel's grammar is kept atomic: a complete CSI, or ESC and one
// byte. Any other introducer (OSC, DCS, ...) counts as two bytes so the text
// after it is still cut at the limit.
func sequenceLen(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	if s[1] != '[' {
		return 2
	}
	seq, _, n, _ := ansi.DecodeSequence(s, 0, nil)
	if n < 3 || !isCSI(seq[:n]) {
		return 2
	}
	return n
}

// isCSI reports whether seq is ESC [ parameter and intermediate bytes, then a
// final byte.
func isCSI(seq string) bool {
	last := len(seq) - 1
	if seq[last] < 0x40 || seq[last] > 0x7e {
		return false
	}
	for i := 2; i < last; i++ {
		if seq[i] < 0x20 || seq[i] > 0x3f {
			return false
		}
	}
	return true
}
