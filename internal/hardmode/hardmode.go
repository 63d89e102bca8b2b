// internal/hardmode/hardmode.go
//
// Hard-mode constraints revealed by previous feedback rows.
// Responsibilities:
//   - Record greens, per-position yellows and fully-grey letters from each (guess, code).
//   - Decide whether a candidate guess honours everything revealed so far.
//
// Constraints is a plain value: copying it snapshots it.

package hardmode

import (
	"github.com/Storm-fyre/silversolver/internal/feedback"
)

// letterSet is a bitmask over 'A'..'Z'.
type letterSet uint32

func bit(ch byte) letterSet {
	if ch < 'A' || ch > 'Z' {
		return 0
	}
	return 1 << (ch - 'A')
}

func (s letterSet) has(ch byte) bool { return s&bit(ch) != 0 }

// Constraints accumulates what the rows so far require of a hard-mode guess.
type Constraints struct {
	greens   [feedback.WordLength]byte      // fixed letter per position, 0 if unknown
	yellows  [feedback.WordLength]letterSet // letters known not to sit at that position
	required letterSet                      // letters that must appear somewhere
	excluded letterSet                      // letters grey everywhere they were tried
}

// Record folds one feedback row into c.
//
// A grey letter is excluded only when it never scored green or yellow in any
// row, so a repeated-letter grey ("EERIE" against "THREE") does not ban the letter.
func (c *Constraints) Record(guess string, code feedback.Code) {
	if len(guess) != feedback.WordLength {
		return
	}
	cols := code.Colors()
	for i, col := range cols {
		ch := guess[i]
		switch col {
		case feedback.Correct:
			c.greens[i] = ch
			c.required |= bit(ch)
		case feedback.Present:
			c.yellows[i] |= bit(ch)
			c.required |= bit(ch)
		}
	}
	for i, col := range cols {
		if col == feedback.Absent && !c.required.has(guess[i]) {
			c.excluded |= bit(guess[i])
		}
	}
	// A letter may become required after an earlier row excluded it.
	c.excluded &^= c.required
}

// Allows reports whether word satisfies every recorded constraint.
func (c Constraints) Allows(word string) bool {
	if len(word) != feedback.WordLength {
		return false
	}
	var present letterSet
	for i := 0; i < feedback.WordLength; i++ {
		ch := word[i]
		if g := c.greens[i]; g != 0 && ch != g {
			return false
		}
		if c.yellows[i].has(ch) || c.excluded.has(ch) {
			return false
		}
		present |= bit(ch)
	}
	return present&c.required == c.required
}

// Empty reports whether nothing has been recorded yet.
func (c Constraints) Empty() bool {
	return c == Constraints{}
}
