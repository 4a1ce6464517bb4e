package store

import (
	"reflect"
	"testing"
)

func TestCompareSceneNames(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1_ARC_01", "1_ARC_01", 0},
		{"2_ARC_01", "10_ARC_01", -1},
		{"10_ARC_01", "2_ARC_01", 1},
		{"1_ARC_01", "1_CIEL_01", -1},
		{"1_ARC", "1_ARC2", -1},
		// A numeric run orders before a literal run.
		{"1_QA", "QA_1", -1},
		{"01_00", "1_0", 0},
	}
	for _, tc := range cases {
		if got := CompareSceneNames(tc.a, tc.b); got != tc.want {
			t.Errorf("CompareSceneNames(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSortSceneNames(t *testing.T) {
	names := []string{"CIEL_1", "ARC_10", "ARC_2", "0_PRO", "ARC_2_EX"}
	SortSceneNames(names)
	want := []string{"0_PRO", "ARC_2", "ARC_2_EX", "ARC_10", "CIEL_1"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("SortSceneNames = %v, want %v", names, want)
	}
}
