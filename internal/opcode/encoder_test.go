package opcode

import (
	"reflect"
	"testing"
)

func TestEncodeCommandText(t *testing.T) {
	cases := []struct {
		script string
		want   string
	}{
		{"_ZMbc419($043897^$043898@n);", "_ZMbc419($043897^$043898@n);\n"},
		{"_ZMbc419($043897^@n);", "_ZMbc419($043897^@n);\n"},
		{"_ZM0349a($001493@k@e);", "_ZM0349a($001493@k@e);\n"},
		{"_ZM0349b(@x$001494);", "_ZM0349b(@x$001494);\n"},
		{"_ZMbc419($043897@n);_MSAD($014370);", "_ZMbc419($043897@n);\n_MSAD($014370);\n"},
		{"_ZM0001a($000001@k^$000002@n);", "_ZM0001a($000001@k^$000002@n);\n"},
		{"_WKST();_ZM0001a($000001);_PGST(7);", "_WKST();\n_ZM0001a($000001);\n_PGST(7);\n"},
	}
	for _, tc := range cases {
		sc := mustParse(t, tc.script)
		if got := string(EncodeScene(sc)); got != tc.want {
			t.Errorf("EncodeScene(parse(%q)) = %q, want %q", tc.script, got, tc.want)
		}
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	scripts := []string{
		"_ZMbc419($043897^$043898@n);_MSAD($014370);",
		"_ZMbc419($043897^@n);_MSAD($014370);",
		"_ZM0349a($001493@k@e);_ZM0349b(@x$001494);",
		"_SELR($000100@e^$000101@e);",
		"_WKST();_ZM0001a($000001);_WKAD(t1,2);_MSAD($000002);_PGST(7);",
		"_ZM0001a($000001@k@n^$000002@n);",
	}
	for _, script := range scripts {
		first := mustParse(t, script)
		second, err := ParseScene(EncodeScene(first), openTable{}, openTable{})
		if err != nil {
			t.Fatalf("re-parse of encoded %q: %v", script, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("round trip of %q:\n first: %+v\nsecond: %+v", script, first, second)
		}
	}
}

func TestEncodeSceneEmpty(t *testing.T) {
	if got := EncodeScene(&Scene{}); got != nil {
		t.Errorf("EncodeScene(empty) = %q, want nil", got)
	}
}
