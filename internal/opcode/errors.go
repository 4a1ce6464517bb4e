package opcode

import "fmt"

// ParseError reports malformed opcode syntax in a scene script. The
// scene's parse produces no partial result when one is returned.
type ParseError struct {
	// Command is the offending command text.
	Command string
	// Pos is the 0-based position of the command in the stream.
	Pos int
	// Reason describes what failed to match.
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("command %d %q: %s", e.Pos, e.Command, e.Reason)
}

// UnresolvedOffsetError reports a text reference without a content
// identity: either the offset is missing from the offset lookup, or it
// resolves to a hash with no translation entry.
type UnresolvedOffsetError struct {
	Offset int
	// Hash is set when the offset resolved but the hash has no entry.
	Hash string
}

func (e *UnresolvedOffsetError) Error() string {
	if e.Hash != "" {
		return fmt.Sprintf("offset %d: hash %s has no translation entry", e.Offset, e.Hash)
	}
	return fmt.Sprintf("offset %d not present in the string table", e.Offset)
}
