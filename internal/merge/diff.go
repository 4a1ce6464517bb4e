package merge

import (
	"fmt"

	"github.com/Dimoks/deepLuna/internal/store"
)

// Entry is one candidate translation read from an import file.
type Entry struct {
	Filename       string
	Line           int
	Offset         int
	TranslatedText string
	Comment        string
}

// Group collects the candidates whose offsets resolve to one content
// hash. The group is unique when every candidate agrees.
type Group struct {
	Hash    string
	entries []Entry
}

// Candidates returns the group's entries in the order they were read.
func (g *Group) Candidates() []Entry { return g.entries }

// IsUnique reports whether all candidates carry the same text and
// comment.
func (g *Group) IsUnique() bool {
	for _, e := range g.entries[1:] {
		if e.TranslatedText != g.entries[0].TranslatedText || e.Comment != g.entries[0].Comment {
			return false
		}
	}
	return true
}

// Diff is a batch of candidate translations grouped by content hash.
type Diff struct {
	groups map[string]*Group
	order  []string
}

// NewDiff creates an empty diff.
func NewDiff() *Diff {
	return &Diff{groups: make(map[string]*Group)}
}

func (d *Diff) add(hash string, e Entry) {
	g, ok := d.groups[hash]
	if !ok {
		g = &Group{Hash: hash}
		d.groups[hash] = g
		d.order = append(d.order, hash)
	}
	g.entries = append(g.entries, e)
}

// Groups returns all groups in first-seen order.
func (d *Diff) Groups() []*Group {
	out := make([]*Group, 0, len(d.order))
	for _, hash := range d.order {
		out = append(out, d.groups[hash])
	}
	return out
}

// Conflicts returns the non-unique groups in first-seen order.
func (d *Diff) Conflicts() []*Group {
	var out []*Group
	for _, g := range d.Groups() {
		if !g.IsUnique() {
			out = append(out, g)
		}
	}
	return out
}

// AnyConflicts reports whether at least one group disagrees.
func (d *Diff) AnyConflicts() bool {
	for _, g := range d.groups {
		if !g.IsUnique() {
			return true
		}
	}
	return false
}

// Empty reports whether the diff holds no candidates at all.
func (d *Diff) Empty() bool { return len(d.groups) == 0 }

// Apply writes every unique group's shared value by hash and clears
// the now-stale offset overrides of its candidates. Conflict groups
// are left untouched for explicit resolution.
func Apply(d *Diff, db *store.DB) (applied, conflicts int, err error) {
	for _, g := range d.Groups() {
		if !g.IsUnique() {
			conflicts++
			continue
		}
		e := g.entries[0]
		if err := db.SetByHash(g.Hash, e.TranslatedText, e.Comment); err != nil {
			return applied, conflicts, fmt.Errorf("apply diff: %w", err)
		}
		for _, e := range g.entries {
			db.ClearOverride(e.Offset)
		}
		applied++
	}
	return applied, conflicts, nil
}

// Resolve commits a conflict group: the selected candidate indexes
// become offset overrides, the rest are written by hash in order with
// the last write winning, each clearing its own stale override first.
func (g *Group) Resolve(db *store.DB, selected []int) error {
	chosen := make(map[int]bool, len(selected))
	for _, idx := range selected {
		if idx < 0 || idx >= len(g.entries) {
			return fmt.Errorf("resolve group %s: candidate %d out of range", g.Hash, idx)
		}
		chosen[idx] = true
	}
	for i, e := range g.entries {
		if chosen[i] {
			continue
		}
		if err := db.SetByHash(g.Hash, e.TranslatedText, e.Comment); err != nil {
			return fmt.Errorf("resolve group: %w", err)
		}
		db.ClearOverride(e.Offset)
	}
	for i, e := range g.entries {
		if !chosen[i] {
			continue
		}
		if err := db.SetByOffset(e.Offset, e.TranslatedText, e.Comment); err != nil {
			return fmt.Errorf("resolve group: %w", err)
		}
	}
	return nil
}

// Keep writes one candidate as the group's shared translation and
// clears every candidate's stale override.
func (g *Group) Keep(db *store.DB, index int) error {
	if index < 0 || index >= len(g.entries) {
		return fmt.Errorf("keep candidate: index %d out of range", index)
	}
	e := g.entries[index]
	if err := db.SetByHash(g.Hash, e.TranslatedText, e.Comment); err != nil {
		return fmt.Errorf("keep candidate: %w", err)
	}
	for _, e := range g.entries {
		db.ClearOverride(e.Offset)
	}
	return nil
}
