package reflow

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Dimoks/deepLuna/internal/opcode"
)

// DefaultWidth is the game text box width in display cells.
const DefaultWidth = 55

// Resolver supplies the current display text for a reference. The
// translation store satisfies it.
type Resolver interface {
	DisplayText(ref opcode.TextReference) string
}

// SceneText reflows a scene's references and returns the display text
// per offset. References glued together wrap as one buffer, so a break
// near a boundary lands in the reference that owns it; the next
// reference only loses the consumed separator whitespace.
func SceneText(refs []opcode.TextReference, res Resolver, width int) map[int]string {
	if width <= 0 {
		width = DefaultWidth
	}
	out := make(map[int]string, len(refs))
	for start := 0; start < len(refs); {
		end := start + 1
		for end < len(refs) && refs[end].IsGlued {
			end++
		}
		chainInto(out, refs[start:end], res, width)
		start = end
	}
	return out
}

type span struct {
	offset     int
	start, end int
}

type breakRec struct {
	// at is the byte position the display line ends; resume is where
	// the next line's text starts. Whitespace between them is consumed.
	at, resume int
}

func chainInto(out map[int]string, chain []opcode.TextReference, res Resolver, width int) {
	var joined strings.Builder
	spans := make([]span, len(chain))
	for i, ref := range chain {
		spans[i] = span{offset: ref.Offset, start: joined.Len()}
		joined.WriteString(res.DisplayText(ref))
		spans[i].end = joined.Len()
	}
	buffer := joined.String()
	breaks := wrap(buffer, width)

	bi := 0
	cursor := 0
	for _, sp := range spans {
		var b strings.Builder
		for bi < len(breaks) && breaks[bi].at > sp.start && breaks[bi].at <= sp.end {
			b.WriteString(buffer[cursor:breaks[bi].at])
			b.WriteByte('\n')
			cursor = breaks[bi].resume
			bi++
		}
		if cursor < sp.end {
			b.WriteString(buffer[cursor:sp.end])
			cursor = sp.end
		}
		out[sp.offset] = b.String()
	}
}

// wrap computes greedy break positions: words accumulate until one
// would overflow the width, then the line breaks before it. A word
// wider than the whole width stays unsplit. A newline already in the
// text resets the line without a break record.
func wrap(s string, width int) []breakRec {
	var breaks []breakRec
	lineCells := 0
	lastEnd := 0
	pos := 0
	for pos < len(s) {
		gapStart := pos
		afterNewline := -1
		for pos < len(s) {
			r, size := utf8.DecodeRuneInString(s[pos:])
			if !unicode.IsSpace(r) {
				break
			}
			if r == '\n' {
				afterNewline = pos + size
			}
			pos += size
		}
		if pos >= len(s) {
			break
		}
		wordStart := pos
		for pos < len(s) {
			r, size := utf8.DecodeRuneInString(s[pos:])
			if unicode.IsSpace(r) {
				break
			}
			pos += size
		}
		wordCells := runewidth.StringWidth(s[wordStart:pos])

		switch {
		case afterNewline >= 0:
			lineCells = runewidth.StringWidth(s[afterNewline:wordStart]) + wordCells
		case lineCells > 0 && lineCells+runewidth.StringWidth(s[gapStart:wordStart])+wordCells > width:
			breaks = append(breaks, breakRec{at: lastEnd, resume: wordStart})
			lineCells = wordCells
		default:
			lineCells += runewidth.StringWidth(s[gapStart:wordStart]) + wordCells
		}
		lastEnd = pos
	}
	return breaks
}
