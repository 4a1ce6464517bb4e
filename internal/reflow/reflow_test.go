package reflow

import (
	"strings"
	"testing"

	"github.com/Dimoks/deepLuna/internal/opcode"
)

type mapResolver map[int]string

func (m mapResolver) DisplayText(ref opcode.TextReference) string { return m[ref.Offset] }

func chain(texts ...string) ([]opcode.TextReference, mapResolver) {
	refs := make([]opcode.TextReference, len(texts))
	res := make(mapResolver, len(texts))
	for i, text := range texts {
		refs[i] = opcode.TextReference{Offset: i, IsGlued: i > 0}
		res[i] = text
	}
	return refs, res
}

func TestReflowBreakInsideSpan(t *testing.T) {
	refs, res := chain(
		"\"Good morning, Shiki-san. You're up early this morning.",
		"\"",
	)
	got := SceneText(refs, res, 55)
	if got[0] != "\"Good morning, Shiki-san. You're up early this\nmorning." {
		t.Errorf("span 0 = %q", got[0])
	}
	if got[1] != "\"" {
		t.Errorf("span 1 = %q", got[1])
	}
}

func TestReflowBreakAtSpanBoundary(t *testing.T) {
	refs, res := chain(
		"Laughing in frantic desperation, I run over to Arcueid,",
		" and forcefully grab her by the arm.",
	)
	got := SceneText(refs, res, 55)
	if got[0] != "Laughing in frantic desperation, I run over to Arcueid,\n" {
		t.Errorf("span 0 = %q", got[0])
	}
	if got[1] != "and forcefully grab her by the arm." {
		t.Errorf("span 1 = %q", got[1])
	}
}

func TestReflowWithoutGlueSpansStayApart(t *testing.T) {
	refs := []opcode.TextReference{{Offset: 0}, {Offset: 1}}
	res := mapResolver{
		0: "Laughing in frantic desperation, I run over to Arcueid,",
		1: " and forcefully grab her by the arm.",
	}
	got := SceneText(refs, res, 55)
	if got[0] != res[0] {
		t.Errorf("span 0 changed: %q", got[0])
	}
	if got[1] != res[1] {
		t.Errorf("span 1 changed: %q", got[1])
	}
}

func TestReflowSingleSpanWraps(t *testing.T) {
	refs, res := chain("one two three four five")
	got := SceneText(refs, res, 9)
	if got[0] != "one two\nthree\nfour five" {
		t.Errorf("wrapped = %q", got[0])
	}
}

func TestReflowLongWordStaysWhole(t *testing.T) {
	long := strings.Repeat("x", 60)
	refs, res := chain("ah " + long + " oh")
	got := SceneText(refs, res, 55)
	if got[0] != "ah\n"+long+"\noh" {
		t.Errorf("long word handling = %q", got[0])
	}
}

func TestReflowAuthoredNewlineResetsLine(t *testing.T) {
	refs, res := chain("aaaa bbbb\ncccc dddd")
	got := SceneText(refs, res, 10)
	if got[0] != "aaaa bbbb\ncccc dddd" {
		t.Errorf("authored newline handling = %q", got[0])
	}
}

func TestReflowEmptyText(t *testing.T) {
	refs, res := chain("", "")
	got := SceneText(refs, res, 55)
	if got[0] != "" || got[1] != "" {
		t.Errorf("empty texts = %q, %q", got[0], got[1])
	}
}

func TestReflowWideCharacters(t *testing.T) {
	// Full-width characters occupy two cells each, so three pairs with
	// separators need 14 cells, not the 8 a rune count would suggest.
	refs, res := chain("ああ ああ ああ")
	got := SceneText(refs, res, 9)
	if got[0] != "ああ ああ\nああ" {
		t.Errorf("wide wrap = %q", got[0])
	}
}

func TestReflowDefaultWidth(t *testing.T) {
	refs, res := chain(
		"\"Good morning, Shiki-san. You're up early this morning.",
		"\"",
	)
	got := SceneText(refs, res, 0)
	if got[0] != "\"Good morning, Shiki-san. You're up early this\nmorning." {
		t.Errorf("default width span 0 = %q", got[0])
	}
}
