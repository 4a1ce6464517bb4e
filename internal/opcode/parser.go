package opcode

import (
	"regexp"
	"strconv"
	"strings"
)

// commandPattern matches one _KEYWORD(operands) command, operands taken
// greedily to the closing parenthesis.
var commandPattern = regexp.MustCompile(`(?s)\A_(\w+)\((.*)\)\z`)

// operandPattern matches one text operand: an optional pre-modifier tag,
// the string-table offset, and the post-modifier run.
var operandPattern = regexp.MustCompile(`\A(@\w+)?\$(\d+)((?:@\w+)*)\z`)

// bareRunPattern matches a modifier run with no offset, as written after
// a dangling separator.
var bareRunPattern = regexp.MustCompile(`\A(?:@\w+)*\z`)

var modifierPattern = regexp.MustCompile(`@\w+`)

// ParseScene tokenizes a scene script into its text references.
// Commands outside the text-carrying families are retained raw and
// produce no reference. Malformed syntax fails the whole parse; an
// offset without a content identity fails it with UnresolvedOffsetError.
func ParseScene(data []byte, offsets OffsetResolver, entries EntryChecker) (*Scene, error) {
	sc := &Scene{}
	var prelude []string

	// Glue for a message-start command depends on the directly
	// preceding command: a text block that did not end dangling.
	afterTextBlock := false
	afterDangling := false

	for pos, seg := range strings.Split(string(data), ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		m := commandPattern.FindStringSubmatch(seg)
		if m == nil {
			return nil, &ParseError{Command: seg, Pos: pos, Reason: "not a _KEYWORD(...) command"}
		}
		keyword, args := m[1], m[2]

		switch {
		case strings.HasPrefix(keyword, textBlockPrefix) || keyword == keywordChoice:
			refs, dangling, err := parseTextBlock(keyword, args)
			if err != nil {
				return nil, &ParseError{Command: seg, Pos: pos, Reason: err.Error()}
			}
			if err := resolveHashes(refs, offsets, entries); err != nil {
				return nil, err
			}
			refs[0].Prelude = prelude
			prelude = nil
			sc.Refs = append(sc.Refs, refs...)
			afterTextBlock = keyword != keywordChoice
			afterDangling = dangling

		case keyword == keywordMessageStart:
			ref, err := parseMessageStart(keyword, args)
			if err != nil {
				return nil, &ParseError{Command: seg, Pos: pos, Reason: err.Error()}
			}
			if afterTextBlock && !afterDangling {
				ref.IsGlued = true
			}
			refs := []TextReference{*ref}
			if err := resolveHashes(refs, offsets, entries); err != nil {
				return nil, err
			}
			refs[0].Prelude = prelude
			prelude = nil
			sc.Refs = append(sc.Refs, refs[0])
			afterTextBlock = false
			afterDangling = false

		default:
			prelude = append(prelude, seg)
			afterTextBlock = false
			afterDangling = false
		}
	}

	sc.Trailer = prelude
	return sc, nil
}

// parseTextBlock splits a text-block operand list on the forced-newline
// separator and builds one reference per operand. The trailing modifier
// run of the group is shared by every member.
func parseTextBlock(keyword, args string) ([]TextReference, bool, error) {
	pieces := strings.Split(args, "^")

	// A final piece with no offset is a dangling separator: its run
	// still applies to the group.
	dangling := false
	var danglingRun []string
	if len(pieces) > 1 && bareRunPattern.MatchString(pieces[len(pieces)-1]) {
		dangling = true
		danglingRun = modifierPattern.FindAllString(pieces[len(pieces)-1], -1)
		pieces = pieces[:len(pieces)-1]
	}

	refs := make([]TextReference, 0, len(pieces))
	for _, piece := range pieces {
		ref, err := parseOperand(keyword, piece)
		if err != nil {
			return nil, false, err
		}
		refs = append(refs, *ref)
	}

	last := len(refs) - 1
	shared := refs[last].PostModifiers
	if dangling {
		shared = danglingRun
		refs[last].DanglingRun = danglingRun
	}
	for i := range refs {
		refs[i].JoinsPrev = i > 0
		refs[i].HasForcedNewline = i < last || dangling
		if i < last || dangling {
			refs[i].Modifiers = append(refs[i].Modifiers, shared...)
		}
		refs[i].IsChoice = keyword == keywordChoice
		refs[i].HasRuby = hasRubyTag(refs[i].Modifiers)
	}
	return refs, dangling, nil
}

// parseMessageStart parses the single operand of a message-start
// command. Positional glue is decided by the caller.
func parseMessageStart(keyword, args string) (*TextReference, error) {
	ref, err := parseOperand(keyword, args)
	if err != nil {
		return nil, err
	}
	ref.HasRuby = hasRubyTag(ref.Modifiers)
	return ref, nil
}

// parseOperand parses [pre]$offset[post...] into a reference with its
// effective modifiers in written order.
func parseOperand(keyword, piece string) (*TextReference, error) {
	m := operandPattern.FindStringSubmatch(piece)
	if m == nil {
		return nil, &operandError{piece}
	}
	offset, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, &operandError{piece}
	}
	ref := &TextReference{
		Offset:      offset,
		Keyword:     keyword,
		PreModifier: m[1],
		IsGlued:     m[1] != "",
	}
	if m[1] != "" {
		ref.Modifiers = append(ref.Modifiers, m[1])
	}
	if m[3] != "" {
		ref.PostModifiers = modifierPattern.FindAllString(m[3], -1)
		ref.Modifiers = append(ref.Modifiers, ref.PostModifiers...)
	}
	return ref, nil
}

type operandError struct {
	piece string
}

func (e *operandError) Error() string {
	return "bad text operand " + strconv.Quote(e.piece)
}

// resolveHashes assigns each reference its content identity and fails
// when the offset or the hash is unknown.
func resolveHashes(refs []TextReference, offsets OffsetResolver, entries EntryChecker) error {
	for i := range refs {
		hash, ok := offsets.HashForOffset(refs[i].Offset)
		if !ok {
			return &UnresolvedOffsetError{Offset: refs[i].Offset}
		}
		if !entries.HasEntry(hash) {
			return &UnresolvedOffsetError{Offset: refs[i].Offset, Hash: hash}
		}
		refs[i].ContentHash = hash
	}
	return nil
}

func hasRubyTag(mods []string) bool {
	for _, m := range mods {
		if m == RubyModifier {
			return true
		}
	}
	return false
}
