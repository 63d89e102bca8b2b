package hardmode

import (
	"testing"

	"github.com/Storm-fyre/silversolver/internal/feedback"
)

func TestEmptyAllowsEverything(t *testing.T) {
	var c Constraints
	if !c.Empty() {
		t.Fatal("zero value should be empty")
	}
	for _, w := range []string{"SLATE", "XYLYL", "AAAAA"} {
		if !c.Allows(w) {
			t.Errorf("empty constraints rejected %s", w)
		}
	}
	if c.Allows("TOOLONG") {
		t.Error("wrong-length word allowed")
	}
}

func TestRecordAndAllows(t *testing.T) {
	var c Constraints
	// CRANE against CRATE: C R A green, N grey, E green.
	c.Record("CRANE", feedback.Encode("CRANE", "CRATE"))

	cases := []struct {
		word string
		want bool
	}{
		{"CRATE", true},
		{"CRAVE", true},
		{"GRATE", false}, // first letter must be C
		{"CRANE", false}, // N is excluded
		{"TRACE", false},
	}
	for _, tc := range cases {
		if got := c.Allows(tc.word); got != tc.want {
			t.Errorf("Allows(%s) = %v, want %v", tc.word, got, tc.want)
		}
	}
}

func TestYellowPositionAndRequirement(t *testing.T) {
	var c Constraints
	// SLATE against TRACE: A green, T yellow, E green; S, L grey.
	c.Record("SLATE", feedback.Encode("SLATE", "TRACE"))

	if c.Allows("BRAKE") {
		t.Error("word without required T allowed")
	}
	if c.Allows("CHATE") {
		t.Error("T in a position already shown yellow allowed")
	}
	if !c.Allows("TRACE") {
		t.Error("the answer itself must stay allowed")
	}
	if c.Allows("STAGE") {
		t.Error("excluded S allowed")
	}
}

func TestRepeatedLetterGreyDoesNotExclude(t *testing.T) {
	var c Constraints
	// EERIE against THREE: the second E is grey, the other two are not.
	code := feedback.Encode("EERIE", "THREE")
	c.Record("EERIE", code)
	if !c.Allows("THREE") {
		t.Errorf("THREE rejected after EERIE=%s", code)
	}
	if c.Allows("THRIE") {
		t.Error("grey I allowed")
	}
}

func TestCopyIsSnapshot(t *testing.T) {
	var c Constraints
	snap := c
	c.Record("CRANE", feedback.Encode("CRANE", "CRATE"))
	if !snap.Empty() {
		t.Error("recording mutated an earlier copy")
	}
	if c.Empty() {
		t.Error("Record left constraints empty")
	}
}
