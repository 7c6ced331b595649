// Package framedump renders frames as hex tables for debug logs.
package framedump

import (
	"fmt"
	"strings"
)

// MaxDumpLength is the number of bytes rendered by Frame, longer frames are truncated.
const MaxDumpLength = 256

const (
	_top    = "         +-------------------------------------------------+"
	_ruler  = "         |  0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f |"
	_border = "+--------+-------------------------------------------------+----------------+"
)

// Hex returns b as a table of 16 bytes per row, with printable characters on the right.
func Hex(b []byte) string {
	sb := &strings.Builder{}
	AppendHex(sb, b)
	return sb.String()
}

// AppendHex writes the table of b into sb. Nothing is written for an empty b.
func AppendHex(sb *strings.Builder, b []byte) {
	if len(b) < 1 {
		return
	}
	sb.WriteString(_top)
	sb.WriteByte('\n')
	sb.WriteString(_ruler)
	sb.WriteByte('\n')
	sb.WriteString(_border)
	for start := 0; start < len(b); start += 16 {
		end := start + 16
		if end > len(b) {
			end = len(b)
		}
		_, _ = fmt.Fprintf(sb, "\n|%08x|", start)
		for _, c := range b[start:end] {
			_, _ = fmt.Fprintf(sb, " %02x", c)
		}
		padding := 16 - (end - start)
		sb.WriteString(strings.Repeat("   ", padding))
		sb.WriteString(" |")
		for _, c := range b[start:end] {
			sb.WriteByte(printable(c))
		}
		sb.WriteString(strings.Repeat(" ", padding))
		sb.WriteByte('|')
	}
	sb.WriteByte('\n')
	sb.WriteString(_border)
}

// Frame returns the description followed by the table of the frame.
func Frame(desc fmt.Stringer, frame []byte) string {
	sb := &strings.Builder{}
	sb.WriteString(desc.String())
	truncated := len(frame) > MaxDumpLength
	if truncated {
		frame = frame[:MaxDumpLength]
	}
	sb.WriteByte('\n')
	AppendHex(sb, frame)
	if truncated {
		sb.WriteString("\n...")
	}
	return sb.String()
}

func printable(b byte) byte {
	if b <= 0x1f || b >= 0x7f {
		return '.'
	}
	return b
}
