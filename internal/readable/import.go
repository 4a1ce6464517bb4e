package readable

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/Dimoks/deepLuna/internal/store"
)

// ParseError reports a lexical fault in an update file together with
// the position of the offending character.
type ParseError struct {
	Line   int
	Column int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("readable update: line %d, column %d: %s", e.Line, e.Column, e.Reason)
}

// LineUpdate is one context block's payload. A field nothing was
// accumulated for stays absent, and apply keeps the stored value.
type LineUpdate struct {
	Text       string
	Comment    string
	HasText    bool
	HasComment bool
}

type lexState int

const (
	stateExpectBlock lexState = iota
	stateContentHash
	stateExpectOpen
	stateBody
	stateMachineComment
	stateHumanComment
)

func isHashDigit(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'f'
}

// ParseUpdate lexes a readable update file into per-hash updates. The
// scan is strict: any lexical fault fails the whole file so a partial
// block never reaches the store. Text lines inside a block join
// without separators, right-trimmed with leading spaces kept; `//`
// starts a human comment anywhere in a line and `--` a discarded
// machine comment; braces in text are literal but depth-counted, so
// only the brace that closes the block's own depth ends it.
func ParseUpdate(content []byte) (map[string]LineUpdate, error) {
	updates := make(map[string]LineUpdate)

	state := stateExpectBlock
	line, col := 1, 0
	depth := 0
	var acc strings.Builder
	var hash string
	var text strings.Builder
	var comments []string

	fail := func(reason string) error {
		return &ParseError{Line: line, Column: col, Reason: reason}
	}
	bankText := func(upto string) {
		trimmed := strings.TrimRightFunc(upto, unicode.IsSpace)
		if trimmed != "" {
			text.WriteString(trimmed)
		}
		acc.Reset()
	}

	for _, r := range string(content) {
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}

		switch state {
		case stateExpectBlock:
			if r == ' ' || r == '\r' || r == '\n' || r == '\t' {
				continue
			}
			if r == '[' {
				state = stateContentHash
				acc.Reset()
				continue
			}
			return nil, fail(fmt.Sprintf("unexpected %q outside a context block", r))

		case stateContentHash:
			if r == ' ' || r == '\r' || r == '\n' || r == '\t' {
				continue
			}
			if r == ']' {
				hash = acc.String()
				acc.Reset()
				state = stateExpectOpen
				continue
			}
			if !isHashDigit(r) {
				return nil, fail(fmt.Sprintf("invalid character %q in content hash", r))
			}
			acc.WriteRune(r)

		case stateExpectOpen:
			if r == ' ' || r == '\r' || r == '\n' || r == '\t' {
				continue
			}
			if r == '{' {
				depth = 1
				state = stateBody
				acc.Reset()
				text.Reset()
				comments = nil
				continue
			}
			return nil, fail(fmt.Sprintf("expected '{' after content hash, found %q", r))

		case stateBody:
			if r == '\n' {
				bankText(acc.String())
				continue
			}
			if r == '{' {
				depth++
				acc.WriteRune(r)
				continue
			}
			if r == '}' {
				depth--
				if depth > 0 {
					acc.WriteRune(r)
					continue
				}
				bankText(acc.String())
				if _, dup := updates[hash]; dup {
					log.Warn().Str("hash", hash).Msg("duplicate context block, last one wins")
				}
				joined := strings.Join(comments, "\n")
				updates[hash] = LineUpdate{
					Text:       text.String(),
					Comment:    joined,
					HasText:    text.Len() > 0,
					HasComment: joined != "",
				}
				state = stateExpectBlock
				continue
			}
			if r == '/' && strings.HasSuffix(acc.String(), "/") {
				bankText(strings.TrimSuffix(acc.String(), "/"))
				state = stateHumanComment
				continue
			}
			if r == '-' && strings.HasSuffix(acc.String(), "-") {
				bankText(strings.TrimSuffix(acc.String(), "-"))
				state = stateMachineComment
				continue
			}
			acc.WriteRune(r)

		case stateMachineComment:
			if r == '\n' {
				state = stateBody
				acc.Reset()
			}

		case stateHumanComment:
			if r == '\n' {
				if c := strings.TrimSpace(acc.String()); c != "" {
					comments = append(comments, c)
				}
				acc.Reset()
				state = stateBody
				continue
			}
			acc.WriteRune(r)
		}
	}

	if state != stateExpectBlock {
		return nil, fail("unexpected end of file before the block was closed")
	}
	return updates, nil
}

// ApplyUpdate writes parsed blocks to the store by hash. Unknown
// hashes are logged and skipped so files written before a re-extract
// still import. Offset overrides are never touched here.
func ApplyUpdate(db *store.DB, updates map[string]LineUpdate) (applied, skipped int) {
	hashes := make([]string, 0, len(updates))
	for hash := range updates {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	for _, hash := range hashes {
		entry, ok := db.Entry(hash)
		if !ok {
			log.Warn().Str("hash", hash).Msg("update references unknown hash, skipping")
			skipped++
			continue
		}
		up := updates[hash]
		text, comment := entry.TranslatedText, entry.Comment
		if up.HasText {
			text = up.Text
		}
		if up.HasComment {
			comment = up.Comment
		}
		if err := db.SetByHash(hash, text, comment); err != nil {
			log.Warn().Err(err).Str("hash", hash).Msg("update failed to apply")
			skipped++
			continue
		}
		applied++
	}
	return applied, skipped
}
