// internal/candidates/candidates.go
//
// Candidate solution sets and the undo history.
// Responsibilities:
//   - Start a session's candidates from the full solution list.
//   - Narrow candidates by one feedback row (order preserved, never grows).
//   - Keep a LIFO stack of deep-copied snapshots for undo.

package candidates

import (
	"slices"

	"github.com/samber/lo"

	"github.com/Storm-fyre/silversolver/internal/feedback"
	"github.com/Storm-fyre/silversolver/internal/hardmode"
)

// Set is an ordered subset of the solution list.
type Set []string

// New returns a copy of solutions as the initial candidate set.
func New(solutions []string) Set {
	return slices.Clone(Set(solutions))
}

// Filter keeps the members w for which enc(guess, w) == code.
// A nil enc uses feedback.Encode. An empty result means the feedback
// contradicts every candidate; the caller decides what to do with that.
func Filter(s Set, guess string, code feedback.Code, enc feedback.Func) Set {
	if enc == nil {
		enc = feedback.Encode
	}
	return lo.Filter(s, func(w string, _ int) bool {
		return enc(guess, w) == code
	})
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set { return slices.Clone(s) }

// Equal reports whether both sets hold the same words in the same order.
func (s Set) Equal(other Set) bool { return slices.Equal(s, other) }

// Contains reports whether w is a candidate.
func (s Set) Contains(w string) bool { return slices.Contains(s, w) }

// ---- history ----

// Snapshot is the state restored by one undo.
type Snapshot struct {
	Candidates  Set
	Guess       string
	Constraints hardmode.Constraints
}

// History is a LIFO stack of snapshots.
type History struct {
	stack []Snapshot
}

// Push stores a deep copy of snap.
func (h *History) Push(snap Snapshot) {
	snap.Candidates = snap.Candidates.Clone()
	h.stack = append(h.stack, snap)
}

// Pop removes and returns the most recent snapshot; false when empty.
func (h *History) Pop() (Snapshot, bool) {
	if len(h.stack) == 0 {
		return Snapshot{}, false
	}
	n := len(h.stack) - 1
	snap := h.stack[n]
	h.stack[n] = Snapshot{}
	h.stack = h.stack[:n]
	return snap, true
}

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.stack) }

// Reset drops every snapshot.
func (h *History) Reset() { h.stack = nil }
