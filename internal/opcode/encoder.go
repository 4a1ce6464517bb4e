package opcode

import (
	"fmt"
	"strings"
)

// EncodeScene rebuilds the scene's command stream from its parsed
// structure: passthrough commands verbatim in position, text commands
// regenerated from each reference group, one command per line.
// Re-parsing the output against the same store yields an equal
// reference sequence.
func EncodeScene(sc *Scene) []byte {
	var lines []string
	for i := 0; i < len(sc.Refs); {
		j := i + 1
		for j < len(sc.Refs) && sc.Refs[j].JoinsPrev {
			j++
		}
		group := sc.Refs[i:j]
		for _, raw := range group[0].Prelude {
			lines = append(lines, raw+";")
		}
		lines = append(lines, encodeCommand(group))
		i = j
	}
	for _, raw := range sc.Trailer {
		lines = append(lines, raw+";")
	}
	if len(lines) == 0 {
		return nil
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// encodeCommand writes one text command from its operand group. A
// forced newline on the last member means the command ended with a
// dangling separator; its run follows the separator.
func encodeCommand(group []TextReference) string {
	var b strings.Builder
	b.WriteByte('_')
	b.WriteString(group[0].Keyword)
	b.WriteByte('(')
	for i, ref := range group {
		if i > 0 {
			b.WriteByte('^')
		}
		b.WriteString(ref.PreModifier)
		fmt.Fprintf(&b, "$%06d", ref.Offset)
		for _, m := range ref.PostModifiers {
			b.WriteString(m)
		}
	}
	if last := group[len(group)-1]; last.HasForcedNewline {
		b.WriteByte('^')
		for _, m := range last.DanglingRun {
			b.WriteString(m)
		}
	}
	b.WriteString(");")
	return b.String()
}
