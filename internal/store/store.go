package store

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/Dimoks/deepLuna/internal/opcode"
)

// HashText computes the SHA-1 hex digest that identifies a source line.
func HashText(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// Entry is one distinct source line, stored once no matter how many
// scene references share it.
type Entry struct {
	ContentHash    string `json:"content_hash"`
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text,omitempty"`
	Comment        string `json:"comment,omitempty"`
}

// Translated reports whether the entry carries a non-empty translation.
func (e Entry) Translated() bool { return e.TranslatedText != "" }

// Override is an offset-keyed translation layered over the shared
// entry. Its presence is meaningful even when the text matches.
type Override struct {
	TranslatedText string `json:"translated_text"`
	Comment        string `json:"comment,omitempty"`
}

// Resolved is the outcome of resolving a reference against the store:
// the override layer if present, else the shared entry, else empty.
type Resolved struct {
	Text       string
	Comment    string
	Overridden bool
}

// Occurrence locates one use of a content hash.
type Occurrence struct {
	Scene  string
	Offset int
	Page   int
}

// DB is the translation database: parsed scenes, translation entries
// content-addressed by source-text digest, offset-keyed overrides and
// the charswap map. It is not safe for concurrent use; callers
// serialize access.
type DB struct {
	scenes       map[string]*opcode.Scene
	entries      map[string]*Entry
	overrides    map[int]*Override
	charswap     map[string]string
	swapRunes    map[rune]rune
	hashByOffset map[int]string
}

// New creates an empty database.
func New() *DB {
	return &DB{
		scenes:       make(map[string]*opcode.Scene),
		entries:      make(map[string]*Entry),
		overrides:    make(map[int]*Override),
		charswap:     make(map[string]string),
		swapRunes:    make(map[rune]rune),
		hashByOffset: make(map[int]string),
	}
}

// RegisterStrings seeds entries and the offset index from a decoded
// string table. Existing entries keep their translations; re-extracting
// the same game text is idempotent.
func (db *DB) RegisterStrings(texts []string) {
	for offset, text := range texts {
		hash := HashText(text)
		if _, ok := db.entries[hash]; !ok {
			db.entries[hash] = &Entry{ContentHash: hash, SourceText: text}
		}
		db.hashByOffset[offset] = hash
	}
}

// PutScene registers a parsed scene, assigning each reference its
// 0-based page ordinal.
func (db *DB) PutScene(name string, sc *opcode.Scene) {
	for i := range sc.Refs {
		sc.Refs[i].PageNumber = i
	}
	db.scenes[name] = sc
}

// HashForOffset implements opcode.OffsetResolver.
func (db *DB) HashForOffset(offset int) (string, bool) {
	hash, ok := db.hashByOffset[offset]
	return hash, ok
}

// HasEntry implements opcode.EntryChecker.
func (db *DB) HasEntry(hash string) bool {
	_, ok := db.entries[hash]
	return ok
}

// Entry returns a copy of the translation entry for a hash.
func (db *DB) Entry(hash string) (Entry, bool) {
	e, ok := db.entries[hash]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Resolve looks a reference up through the layers: the offset override
// wins, then the shared hash entry. An unknown hash resolves empty,
// which is the valid untranslated state.
func (db *DB) Resolve(ref opcode.TextReference) Resolved {
	if ov, ok := db.overrides[ref.Offset]; ok {
		return Resolved{Text: ov.TranslatedText, Comment: ov.Comment, Overridden: true}
	}
	if e, ok := db.entries[ref.ContentHash]; ok {
		return Resolved{Text: e.TranslatedText, Comment: e.Comment}
	}
	return Resolved{}
}

// DisplayText is the text a reference shows in-game right now: the
// first non-empty of override, shared translation, source text.
func (db *DB) DisplayText(ref opcode.TextReference) string {
	if ov, ok := db.overrides[ref.Offset]; ok && ov.TranslatedText != "" {
		return ov.TranslatedText
	}
	if e, ok := db.entries[ref.ContentHash]; ok {
		if e.TranslatedText != "" {
			return e.TranslatedText
		}
		return e.SourceText
	}
	return ""
}

// SetByHash updates the shared entry, affecting every occurrence of
// the hash.
func (db *DB) SetByHash(hash, text, comment string) error {
	e, ok := db.entries[hash]
	if !ok {
		return fmt.Errorf("set by hash: no entry for %s", hash)
	}
	e.TranslatedText = text
	e.Comment = comment
	return nil
}

// SetByOffset writes an override for one string-table slot. The offset
// must be referenced by a registered scene.
func (db *DB) SetByOffset(offset int, text, comment string) error {
	if _, ok := db.hashByOffset[offset]; !ok {
		return fmt.Errorf("set by offset: offset %d not referenced by any scene", offset)
	}
	db.overrides[offset] = &Override{TranslatedText: text, Comment: comment}
	return nil
}

// ClearOverride removes the override for an offset, reverting the slot
// to the shared entry. It reports whether one was present.
func (db *DB) ClearOverride(offset int) bool {
	_, ok := db.overrides[offset]
	delete(db.overrides, offset)
	return ok
}

// HasOverride reports whether an offset carries an override.
func (db *DB) HasOverride(offset int) bool {
	_, ok := db.overrides[offset]
	return ok
}

// TranslatedPercent is the share of distinct entries with a non-empty
// translation, as a percentage.
func (db *DB) TranslatedPercent() float64 {
	if len(db.entries) == 0 {
		return 0
	}
	translated := 0
	for _, e := range db.entries {
		if e.Translated() {
			translated++
		}
	}
	return float64(translated) * 100 / float64(len(db.entries))
}

// ScenePercent is the share of the scene's reference occurrences whose
// resolved translation is non-empty. Duplicate hashes count each time
// they appear.
func (db *DB) ScenePercent(name string) (float64, error) {
	sc, ok := db.scenes[name]
	if !ok {
		return 0, fmt.Errorf("scene percent: unknown scene %q", name)
	}
	if len(sc.Refs) == 0 {
		return 0, nil
	}
	translated := 0
	for _, ref := range sc.Refs {
		if db.Resolve(ref).Text != "" {
			translated++
		}
	}
	return float64(translated) * 100 / float64(len(sc.Refs)), nil
}

// SceneNames lists registered scenes in natural order.
func (db *DB) SceneNames() []string {
	names := make([]string, 0, len(db.scenes))
	for name := range db.scenes {
		names = append(names, name)
	}
	SortSceneNames(names)
	return names
}

// Lines returns the scene's references in stream order.
func (db *DB) Lines(name string) ([]opcode.TextReference, error) {
	sc, ok := db.scenes[name]
	if !ok {
		return nil, fmt.Errorf("lines: unknown scene %q", name)
	}
	return sc.Refs, nil
}

// Scene returns the parsed scene itself.
func (db *DB) Scene(name string) (*opcode.Scene, bool) {
	sc, ok := db.scenes[name]
	return sc, ok
}

// Occurrences lists every use of a hash across all scenes, in natural
// scene order.
func (db *DB) Occurrences(hash string) []Occurrence {
	var out []Occurrence
	for _, name := range db.SceneNames() {
		for _, ref := range db.scenes[name].Refs {
			if ref.ContentHash == hash {
				out = append(out, Occurrence{Scene: name, Offset: ref.Offset, Page: ref.PageNumber})
			}
		}
	}
	return out
}

// UntranslatedHashes lists entries without a translation, sorted for
// deterministic batching.
func (db *DB) UntranslatedHashes() []string {
	var out []string
	for hash, e := range db.entries {
		if !e.Translated() {
			out = append(out, hash)
		}
	}
	sort.Strings(out)
	return out
}

// EntryCount returns the number of distinct entries.
func (db *DB) EntryCount() int { return len(db.entries) }

// TableSize is the number of string-table slots the database knows
// about: one past the highest referenced offset.
func (db *DB) TableSize() int {
	size := 0
	for offset := range db.hashByOffset {
		if offset+1 > size {
			size = offset + 1
		}
	}
	return size
}

// SetCharswap replaces the charswap map.
func (db *DB) SetCharswap(m map[string]string) {
	db.charswap = make(map[string]string, len(m))
	db.swapRunes = make(map[rune]rune, len(m))
	for src, dst := range m {
		db.charswap[src] = dst
		sr := []rune(src)
		dr := []rune(dst)
		if len(sr) == 1 && len(dr) == 1 {
			db.swapRunes[sr[0]] = dr[0]
		}
	}
}

// Charswap returns a copy of the charswap map.
func (db *DB) Charswap() map[string]string {
	out := make(map[string]string, len(db.charswap))
	for k, v := range db.charswap {
		out[k] = v
	}
	return out
}

// SwapText applies the charswap map rune for rune.
func (db *DB) SwapText(s string) string {
	if len(db.swapRunes) == 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if repl, ok := db.swapRunes[r]; ok {
			return repl
		}
		return r
	}, s)
}
