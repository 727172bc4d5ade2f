package feature

import (
	"math"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	for _, id := range All {
		got, err := Parse(id.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", id.String(), err)
		}
		if got != id {
			t.Errorf("Parse(%q) = %v, want %v", id.String(), got, id)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("loudness"); err == nil {
		t.Fatal("expected error for unknown feature")
	}
	if _, err := ParseList([]string{"jitter", "nope"}); err == nil {
		t.Fatal("expected error for unknown feature in list")
	}
}

func TestAnalyzedIsSubsetOfAll(t *testing.T) {
	if len(All) != Count {
		t.Fatalf("len(All) = %d, want %d", len(All), Count)
	}
	if len(Analyzed) != 8 {
		t.Errorf("len(Analyzed) = %d, want 8", len(Analyzed))
	}
}

func TestMissing(t *testing.T) {
	v := Missing()
	for _, id := range All {
		if v.Has(id) {
			t.Errorf("%s present in Missing()", id)
		}
	}
	v[Jitter] = 0.01
	if !v.Has(Jitter) || math.IsNaN(v[Jitter]) {
		t.Error("expected jitter to be present")
	}
}
