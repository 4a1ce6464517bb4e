package opcode

import (
	"errors"
	"reflect"
	"testing"
)

const dummyHash = "a276fa8af56e02a59ad15bd4ce284b0b57bb4c9c"

// openTable resolves every offset to the same seeded hash, standing in
// for a fully populated store.
type openTable struct{}

func (openTable) HashForOffset(int) (string, bool) { return dummyHash, true }
func (openTable) HasEntry(string) bool             { return true }

// emptyTable resolves nothing.
type emptyTable struct{}

func (emptyTable) HashForOffset(int) (string, bool) { return "", false }
func (emptyTable) HasEntry(string) bool             { return false }

// orphanTable resolves offsets to a hash that has no entry.
type orphanTable struct{}

func (orphanTable) HashForOffset(int) (string, bool) { return dummyHash, true }
func (orphanTable) HasEntry(string) bool             { return false }

func mustParse(t *testing.T, script string) *Scene {
	t.Helper()
	sc, err := ParseScene([]byte(script), openTable{}, openTable{})
	if err != nil {
		t.Fatalf("ParseScene(%q): %v", script, err)
	}
	return sc
}

func checkRef(t *testing.T, i int, got, want TextReference) {
	t.Helper()
	if got.Offset != want.Offset {
		t.Errorf("ref %d: offset = %d, want %d", i, got.Offset, want.Offset)
	}
	if got.ContentHash != want.ContentHash {
		t.Errorf("ref %d: content hash = %q, want %q", i, got.ContentHash, want.ContentHash)
	}
	if got.PageNumber != want.PageNumber {
		t.Errorf("ref %d: page = %d, want %d", i, got.PageNumber, want.PageNumber)
	}
	if !reflect.DeepEqual(got.Modifiers, want.Modifiers) {
		t.Errorf("ref %d: modifiers = %v, want %v", i, got.Modifiers, want.Modifiers)
	}
	if got.HasForcedNewline != want.HasForcedNewline {
		t.Errorf("ref %d: forced newline = %v, want %v", i, got.HasForcedNewline, want.HasForcedNewline)
	}
	if got.IsGlued != want.IsGlued {
		t.Errorf("ref %d: glued = %v, want %v", i, got.IsGlued, want.IsGlued)
	}
	if got.IsChoice != want.IsChoice {
		t.Errorf("ref %d: choice = %v, want %v", i, got.IsChoice, want.IsChoice)
	}
}

func checkRefs(t *testing.T, sc *Scene, want []TextReference) {
	t.Helper()
	if len(sc.Refs) != len(want) {
		t.Fatalf("got %d refs, want %d", len(sc.Refs), len(want))
	}
	for i := range want {
		checkRef(t, i, sc.Refs[i], want[i])
	}
}

func TestParseForcedNewline(t *testing.T) {
	sc := mustParse(t, "_ZMbc419($043897^$043898@n);")
	checkRefs(t, sc, []TextReference{
		{Offset: 43897, ContentHash: dummyHash, Modifiers: []string{"@n"}, HasForcedNewline: true},
		{Offset: 43898, ContentHash: dummyHash, Modifiers: []string{"@n"}},
	})
}

func TestParseForcedNewlineThenGluedMessage(t *testing.T) {
	sc := mustParse(t, "_ZMbc419($043897^$043898@n);_MSAD($014370);")
	checkRefs(t, sc, []TextReference{
		{Offset: 43897, ContentHash: dummyHash, Modifiers: []string{"@n"}, HasForcedNewline: true},
		{Offset: 43898, ContentHash: dummyHash, Modifiers: []string{"@n"}},
		{Offset: 14370, ContentHash: dummyHash, IsGlued: true},
	})
}

func TestParseDanglingSeparatorSuppressesGlue(t *testing.T) {
	sc := mustParse(t, "_ZMbc419($043897^@n);_MSAD($014370);")
	checkRefs(t, sc, []TextReference{
		{Offset: 43897, ContentHash: dummyHash, Modifiers: []string{"@n"}, HasForcedNewline: true},
		{Offset: 14370, ContentHash: dummyHash},
	})
}

func TestParseMessageStartGluedByDefault(t *testing.T) {
	sc := mustParse(t, "_ZMbc419($043897@n);_MSAD($014370);")
	checkRefs(t, sc, []TextReference{
		{Offset: 43897, ContentHash: dummyHash, Modifiers: []string{"@n"}},
		{Offset: 14370, ContentHash: dummyHash, IsGlued: true},
	})
}

func TestParseGlueModifier(t *testing.T) {
	sc := mustParse(t, "_ZM0349a($001493@k@e);_ZM0349b(@x$001494);")
	checkRefs(t, sc, []TextReference{
		{Offset: 1493, ContentHash: dummyHash, Modifiers: []string{"@k", "@e"}},
		{Offset: 1494, ContentHash: dummyHash, Modifiers: []string{"@x"}, IsGlued: true},
	})
}

func TestParseChoiceCommand(t *testing.T) {
	sc := mustParse(t, "_SELR($000100^$000101@e);")
	checkRefs(t, sc, []TextReference{
		{Offset: 100, ContentHash: dummyHash, Modifiers: []string{"@e"}, HasForcedNewline: true, IsChoice: true},
		{Offset: 101, ContentHash: dummyHash, Modifiers: []string{"@e"}, IsChoice: true},
	})
}

func TestParseMessageStartAfterChoiceNotGlued(t *testing.T) {
	sc := mustParse(t, "_SELR($000100);_MSAD($000200);")
	if sc.Refs[1].IsGlued {
		t.Errorf("message start after choice command should not be glued")
	}
}

func TestParseRubyModifier(t *testing.T) {
	sc := mustParse(t, "_ZM0001a($000001@r);")
	if !sc.Refs[0].HasRuby {
		t.Errorf("@r modifier should set the ruby facet")
	}
}

func TestParsePassthroughCommands(t *testing.T) {
	sc := mustParse(t, "_WKST();_ZM0001a($000001);_WKAD(t1,2);_MSAD($000002);_PGST(7);")
	checkRefs(t, sc, []TextReference{
		{Offset: 1, ContentHash: dummyHash},
		{Offset: 2, ContentHash: dummyHash, IsGlued: false},
	})
	if want := []string{"_WKST()"}; !reflect.DeepEqual(sc.Refs[0].Prelude, want) {
		t.Errorf("prelude of ref 0 = %v, want %v", sc.Refs[0].Prelude, want)
	}
	if want := []string{"_WKAD(t1,2)"}; !reflect.DeepEqual(sc.Refs[1].Prelude, want) {
		t.Errorf("prelude of ref 1 = %v, want %v", sc.Refs[1].Prelude, want)
	}
	if want := []string{"_PGST(7)"}; !reflect.DeepEqual(sc.Trailer, want) {
		t.Errorf("trailer = %v, want %v", sc.Trailer, want)
	}
}

func TestParsePassthroughResetsMessageGlue(t *testing.T) {
	sc := mustParse(t, "_ZM0001a($000001);_WKAD(t1,2);_MSAD($000002);")
	if sc.Refs[1].IsGlued {
		t.Errorf("an intervening command should reset message-start glue")
	}
}

func TestParseMalformedCommand(t *testing.T) {
	_, err := ParseScene([]byte("_ZM0001a($000001);garbage here"), openTable{}, openTable{})
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want a ParseError", err)
	}
	if perr.Command != "garbage here" {
		t.Errorf("ParseError.Command = %q", perr.Command)
	}
}

func TestParseMalformedOperand(t *testing.T) {
	for _, script := range []string{
		"_ZM0001a(hello);",
		"_ZM0001a($12ab);",
		"_ZM0001a();",
		"_MSAD($000001^$000002);",
	} {
		_, err := ParseScene([]byte(script), openTable{}, openTable{})
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("ParseScene(%q): got %v, want a ParseError", script, err)
		}
	}
}

func TestParseUnresolvedOffset(t *testing.T) {
	_, err := ParseScene([]byte("_ZM0001a($000001);"), emptyTable{}, emptyTable{})
	var uerr *UnresolvedOffsetError
	if !errors.As(err, &uerr) {
		t.Fatalf("got %v, want an UnresolvedOffsetError", err)
	}
	if uerr.Offset != 1 || uerr.Hash != "" {
		t.Errorf("UnresolvedOffsetError = %+v", uerr)
	}
}

func TestParseOffsetWithoutEntry(t *testing.T) {
	_, err := ParseScene([]byte("_ZM0001a($000001);"), orphanTable{}, orphanTable{})
	var uerr *UnresolvedOffsetError
	if !errors.As(err, &uerr) {
		t.Fatalf("got %v, want an UnresolvedOffsetError", err)
	}
	if uerr.Hash != dummyHash {
		t.Errorf("UnresolvedOffsetError.Hash = %q, want %q", uerr.Hash, dummyHash)
	}
}

func TestParseEmptyScript(t *testing.T) {
	sc := mustParse(t, "  \n ")
	if len(sc.Refs) != 0 || len(sc.Trailer) != 0 {
		t.Errorf("empty script parsed to %+v", sc)
	}
}
