package readable

import (
	"fmt"
	"strings"

	"github.com/Dimoks/deepLuna/internal/store"
)

// Placeholder marks an untranslated block in exported files. It is a
// machine comment, so re-importing it leaves the entry untouched.
const Placeholder = "-- TRANSLATION HERE"

// ExportScene renders one scene as a sequence of context blocks for
// proofreading. Each reference gets a block keyed by its content hash:
// machine comments describe where the line appears and what the source
// says, human comments carry the entry comment, and the body is the
// raw stored translation. Overridden offsets get an extra machine
// comment so reviewers know the shared text is shadowed there.
func ExportScene(db *store.DB, scene string) (string, error) {
	refs, err := db.Lines(scene)
	if err != nil {
		return "", fmt.Errorf("export scene: %w", err)
	}

	var b strings.Builder
	for _, ref := range refs {
		entry, ok := db.Entry(ref.ContentHash)
		if !ok {
			return "", fmt.Errorf("export scene %s: no entry for hash %s", scene, ref.ContentHash)
		}

		glued := ""
		if ref.IsGlued {
			glued = " Glued."
		}
		choice := ""
		if ref.IsChoice {
			choice = " Choice."
		}
		mods := ""
		if len(ref.Modifiers) > 0 {
			mods = fmt.Sprintf(" Mods: %s.", strings.Join(ref.Modifiers, ", "))
		}

		fmt.Fprintf(&b, "[%s]{\n", ref.ContentHash)
		fmt.Fprintf(&b, "-- Page %d, Offset %d.%s%s%s\n", ref.PageNumber, ref.Offset, glued, choice, mods)
		fmt.Fprintf(&b, "-- %s\n", machineSafe(entry.SourceText))
		if db.HasOverride(ref.Offset) {
			b.WriteString("-- Offset override in effect here.\n")
		}
		for _, line := range strings.Split(entry.Comment, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprintf(&b, "// %s\n", line)
		}
		if entry.TranslatedText != "" {
			b.WriteString(entry.TranslatedText)
			b.WriteString("\n")
		} else {
			b.WriteString(Placeholder)
			b.WriteString("\n")
		}
		b.WriteString("}\n")
	}
	return b.String(), nil
}

// machineSafe keeps a source excerpt on one comment line.
func machineSafe(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
}
