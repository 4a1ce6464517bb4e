package opcode

// Command keyword families that carry displayable text. Everything else
// in a scene script is passed through untouched.
const (
	textBlockPrefix     = "ZM"
	keywordChoice       = "SELR"
	keywordMessageStart = "MSAD"
)

// Modifier tags with engine-visible meaning. All other tags are carried
// opaquely and re-emitted as written.
const (
	// GlueModifier written before an offset glues the operand to the
	// preceding on-screen text.
	GlueModifier = "@x"
	// RubyModifier marks a ruby (furigana) annotation on the operand.
	RubyModifier = "@r"
)

// TextReference is one displayable-text occurrence in a scene script.
type TextReference struct {
	// Offset is the decimal index into the string table.
	Offset int `json:"offset"`
	// ContentHash is the hex digest of the source text the offset
	// resolves to.
	ContentHash string `json:"content_hash"`
	// PageNumber is the 0-based ordinal of the reference within its
	// scene. The parser emits 0; the store assigns it on registration.
	PageNumber int `json:"page_number"`
	// Modifiers is the effective ordered tag list: the pre-modifier,
	// the operand's own post-modifiers, then any run inherited from the
	// operand group. Order is significant for re-encoding.
	Modifiers []string `json:"modifiers,omitempty"`
	// HasForcedNewline reports that a forced-newline separator followed
	// this operand.
	HasForcedNewline bool `json:"has_forced_newline,omitempty"`
	// IsGlued reports that this text continues the previous on-screen
	// text directly, either by pre-modifier or by command position.
	IsGlued bool `json:"is_glued,omitempty"`
	// IsChoice reports that the reference came from a choice command.
	IsChoice bool `json:"is_choice,omitempty"`
	// HasRuby reports that the modifiers carry a ruby annotation.
	HasRuby bool `json:"has_ruby,omitempty"`

	// Encoding structure. These fields record how the reference was
	// written so EncodeScene can rebuild the command stream exactly.

	// Keyword is the command keyword the reference was parsed from.
	Keyword string `json:"keyword"`
	// JoinsPrev reports that the reference continues the previous
	// reference's command as a subsequent separator-joined operand.
	JoinsPrev bool `json:"joins_prev,omitempty"`
	// PreModifier is the tag written directly before the offset, if any.
	PreModifier string `json:"pre_modifier,omitempty"`
	// PostModifiers is the tag run written directly after the offset.
	PostModifiers []string `json:"post_modifiers,omitempty"`
	// DanglingRun is the tag run written after a trailing separator at
	// the end of the reference's command.
	DanglingRun []string `json:"dangling_run,omitempty"`
	// Prelude holds raw passthrough commands that preceded this
	// reference's command, without terminators.
	Prelude []string `json:"prelude,omitempty"`
}

// Scene is a parsed scene script: its text references in stream order
// plus any raw passthrough commands after the last text command.
type Scene struct {
	Refs []TextReference `json:"refs"`
	// Trailer holds raw passthrough commands after the last text
	// command, without terminators.
	Trailer []string `json:"trailer,omitempty"`
}

// OffsetResolver maps a string-table offset to the content hash of the
// text stored in that slot.
type OffsetResolver interface {
	HashForOffset(offset int) (string, bool)
}

// EntryChecker reports whether a content hash has a translation entry.
type EntryChecker interface {
	HasEntry(hash string) bool
}
