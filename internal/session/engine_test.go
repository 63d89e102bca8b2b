package session

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/Storm-fyre/silversolver/internal/feedback"
	"github.com/Storm-fyre/silversolver/internal/hardmode"
	"github.com/Storm-fyre/silversolver/internal/words"
)

var (
	smallSolutions = []string{"CRANE", "CRATE", "GRATE"}
	smallGuesses   = []string{"SLATE", "TRACE", "CRANE", "CARTE", "ROATE", "SALET", "REAST", "CRATE", "GRATE"}
)

func clockAt(sec int) func() time.Time {
	return func() time.Time { return time.Date(2024, 1, 1, 12, 0, sec, 0, time.UTC) }
}

func newSmall(sec int, opts ...Option) *Engine {
	loader := words.NewLoader(words.Static(smallGuesses, smallSolutions))
	return New(loader, append([]Option{WithClock(clockAt(sec))}, opts...)...)
}

func newEmbedded(sec int, opts ...Option) *Engine {
	return New(words.NewLoader(words.Embedded()), append([]Option{WithClock(clockAt(sec))}, opts...)...)
}

func do(t *testing.T, e *Engine, req Request) Response {
	t.Helper()
	return e.Handle(context.Background(), req)
}

func TestStartOpenerRotation(t *testing.T) {
	for sec := 0; sec < 60; sec++ {
		resp := do(t, newSmall(sec), Request{Kind: KindStart})
		if resp.Kind != RespGuess {
			t.Fatalf("sec %d: kind = %s", sec, resp.Kind)
		}
		if want := Openers[sec%7]; resp.Guess != want {
			t.Errorf("sec %d: opener = %s, want %s", sec, resp.Guess, want)
		}
		if !slices.Equal(resp.Alts, Openers) {
			t.Errorf("sec %d: alts = %v", sec, resp.Alts)
		}
	}
	a := do(t, newSmall(3), Request{Kind: KindStart})
	b := do(t, newSmall(10), Request{Kind: KindStart})
	if a.Guess != b.Guess {
		t.Errorf("seconds 3 and 10 gave %s and %s", a.Guess, b.Guess)
	}
}

func TestNextSolvesScenario(t *testing.T) {
	e := newSmall(2) // CRANE
	if resp := do(t, e, Request{Kind: KindStart}); resp.Guess != "CRANE" || resp.Remaining != 3 {
		t.Fatalf("start = %+v", resp)
	}

	code := int(feedback.Encode("CRANE", "CRATE"))
	resp := do(t, e, Request{Kind: KindNext, Feedback: code})
	if resp.Kind != RespSolved || resp.Guess != "CRATE" {
		t.Fatalf("next = %+v, want solved CRATE", resp)
	}
	if e.Status() != Solved || resp.Remaining != 1 || resp.Turn != 1 {
		t.Errorf("status=%s remaining=%d turn=%d", e.Status(), resp.Remaining, resp.Turn)
	}

	// Further feedback re-reports the solution without touching state.
	for _, fb := range []int{0, 100, 242} {
		again := do(t, e, Request{Kind: KindNext, Feedback: fb})
		if again.Kind != RespSolved || again.Guess != "CRATE" || again.Turn != 1 {
			t.Errorf("next(%d) after solve = %+v", fb, again)
		}
	}
}

func TestNextContradiction(t *testing.T) {
	e := newSmall(2) // CRANE
	do(t, e, Request{Kind: KindStart})

	resp := do(t, e, Request{Kind: KindNext, Feedback: 0})
	if resp.Kind != RespError || resp.Error != "Contradictory feedback!" || !errors.Is(resp.Err(), ErrContradiction) {
		t.Fatalf("next = %+v, want contradiction", resp)
	}
	if e.Status() != Contradiction || resp.Remaining != 0 {
		t.Errorf("status=%s remaining=%d", e.Status(), resp.Remaining)
	}

	again := do(t, e, Request{Kind: KindNext, Feedback: 5})
	if again.Kind != RespError || !errors.Is(again.Err(), ErrContradiction) || again.Turn != 1 {
		t.Errorf("second next = %+v", again)
	}

	undo := do(t, e, Request{Kind: KindUndo})
	if undo.Kind != RespGuess || !undo.Undone || undo.Guess != "CRANE" || undo.Remaining != 3 {
		t.Errorf("undo = %+v", undo)
	}
	if e.Status() != AwaitingGuess {
		t.Errorf("status after undo = %s", e.Status())
	}
}

func TestUndoRestoresExactState(t *testing.T) {
	e := newEmbedded(0) // SLATE
	do(t, e, Request{Kind: KindStart})

	beforeCands, beforeGuess := e.Candidates(), e.CurrentGuess()
	resp := do(t, e, Request{Kind: KindNext, Feedback: int(feedback.Encode("SLATE", "CRATE"))})
	if resp.Kind != RespGuess || resp.Alts[0] != resp.Guess {
		t.Fatalf("next = %+v", resp)
	}
	if !e.Dictionary().IsGuess(resp.Guess) {
		t.Errorf("suggested %s is not a guess", resp.Guess)
	}

	undo := do(t, e, Request{Kind: KindUndo})
	if !undo.Undone || undo.Guess != beforeGuess || undo.Turn != 0 {
		t.Errorf("undo = %+v", undo)
	}
	if !e.Candidates().Equal(beforeCands) {
		t.Error("undo did not restore the candidate set")
	}
}

func TestUndoEmpty(t *testing.T) {
	e := newSmall(0)
	do(t, e, Request{Kind: KindStart})
	guess := e.CurrentGuess()

	resp := do(t, e, Request{Kind: KindUndo})
	if resp.Kind != RespError || resp.Error != "Nothing to undo" {
		t.Fatalf("undo = %+v", resp)
	}
	if e.CurrentGuess() != guess || len(e.Candidates()) != 3 || e.Status() != AwaitingGuess {
		t.Error("empty undo changed state")
	}
}

func TestMonotonicPlayToSolve(t *testing.T) {
	for _, hard := range []bool{false, true} {
		e := newEmbedded(4, WithHardMode(hard), WithWorkers(2))
		resp := do(t, e, Request{Kind: KindStart})

		var clues hardmode.Constraints
		prev := resp.Remaining
		const secret = "CRATE"
		for turn := 0; resp.Kind == RespGuess; turn++ {
			if turn > 10 {
				t.Fatalf("hard=%v: not solved after %d turns", hard, turn)
			}
			if hard && turn > 0 && !clues.Allows(resp.Guess) {
				t.Errorf("hard mode suggested %s", resp.Guess)
			}
			code := feedback.Encode(resp.Guess, secret)
			clues.Record(resp.Guess, code)
			resp = do(t, e, Request{Kind: KindNext, Feedback: int(code)})
			if resp.Remaining > prev {
				t.Errorf("candidates grew from %d to %d", prev, resp.Remaining)
			}
			prev = resp.Remaining
		}
		if resp.Kind != RespSolved || resp.Guess != secret {
			t.Errorf("hard=%v: final = %+v", hard, resp)
		}
	}
}

func TestManual(t *testing.T) {
	e := newSmall(0)

	if resp := do(t, e, Request{Kind: KindManual, Guess: "crate"}); !errors.Is(resp.Err(), ErrNotStarted) {
		t.Errorf("manual before start = %+v", resp)
	}

	do(t, e, Request{Kind: KindStart})
	resp := do(t, e, Request{Kind: KindManual, Guess: " grate "})
	if resp.Kind != RespAck || resp.Ignored || e.CurrentGuess() != "GRATE" {
		t.Errorf("manual = %+v, guess %s", resp, e.CurrentGuess())
	}

	for _, bad := range []string{"", "abc", "CR4TE", "TOOLONG", "ZZZZZ"} {
		resp := do(t, e, Request{Kind: KindManual, Guess: bad})
		if resp.Kind != RespAck || !resp.Ignored {
			t.Errorf("manual(%q) = %+v, want ignored ack", bad, resp)
		}
		if e.CurrentGuess() != "GRATE" {
			t.Errorf("manual(%q) changed guess to %s", bad, e.CurrentGuess())
		}
	}
	if e.HistoryLen() != 0 || len(e.Candidates()) != 3 {
		t.Error("manual touched history or candidates")
	}
}

func TestRerollKeepsProgress(t *testing.T) {
	e := newSmall(0)
	if resp := do(t, e, Request{Kind: KindReroll}); !errors.Is(resp.Err(), ErrNotStarted) {
		t.Errorf("reroll before start = %+v", resp)
	}
	do(t, e, Request{Kind: KindStart})
	do(t, e, Request{Kind: KindManual, Guess: "SLATE"})
	do(t, e, Request{Kind: KindNext, Feedback: int(feedback.Encode("SLATE", "CRANE"))})

	cands, turns := e.Candidates(), e.HistoryLen()
	e.clock = clockAt(6)
	resp := do(t, e, Request{Kind: KindReroll})
	if resp.Kind != RespGuess || resp.Guess != "REAST" || !slices.Equal(resp.Alts, Openers) {
		t.Errorf("reroll = %+v", resp)
	}
	if !e.Candidates().Equal(cands) || e.HistoryLen() != turns {
		t.Error("reroll touched candidates or history")
	}
}

func TestNextValidation(t *testing.T) {
	e := newSmall(0)
	if resp := do(t, e, Request{Kind: KindNext, Feedback: 1}); resp.Error != "Game not started" {
		t.Errorf("next before start = %+v", resp)
	}
	do(t, e, Request{Kind: KindStart})
	for _, fb := range []int{-1, 243, 1000} {
		resp := do(t, e, Request{Kind: KindNext, Feedback: fb})
		if resp.Error != "Invalid feedback" || !errors.Is(resp.Err(), ErrInvalidFeedback) {
			t.Errorf("next(%d) = %+v", fb, resp)
		}
	}
	if e.HistoryLen() != 0 {
		t.Error("invalid feedback pushed history")
	}
	if resp := do(t, e, Request{Kind: "bogus"}); !errors.Is(resp.Err(), ErrUnknownKind) {
		t.Errorf("unknown kind = %+v", resp)
	}
}

func TestLoadFailureReportedOnce(t *testing.T) {
	boom := errors.New("fetch failed")
	loader := words.NewLoader(func(ctx context.Context) ([]string, []string, error) {
		return nil, nil, boom
	})
	e := New(loader)

	first := do(t, e, Request{Kind: KindStart})
	if first.Kind != RespError || first.Error != "Word lists failed to load" {
		t.Fatalf("first = %+v", first)
	}
	if err := first.Err(); !errors.Is(err, ErrLoadFailed) || !errors.Is(err, words.ErrLoadFailed) || !errors.Is(err, boom) {
		t.Errorf("cause = %v", err)
	}
	for _, k := range []Kind{KindStart, KindNext, KindUndo} {
		resp := do(t, e, Request{Kind: k})
		if resp.Error != "Solver unavailable" || !errors.Is(resp.Err(), ErrUnavailable) {
			t.Errorf("%s after failure = %+v", k, resp)
		}
	}
	if e.Status() != Failed {
		t.Errorf("status = %s, want failed", e.Status())
	}
}

func TestRestartClearsHistory(t *testing.T) {
	e := newSmall(2)
	do(t, e, Request{Kind: KindStart})
	do(t, e, Request{Kind: KindNext, Feedback: 0})
	resp := do(t, e, Request{Kind: KindStart})
	if resp.Kind != RespGuess || resp.Turn != 0 || resp.Remaining != 3 || e.Status() != AwaitingGuess {
		t.Errorf("restart = %+v status %s", resp, e.Status())
	}
}

func TestCancelledFirstRequestDoesNotFailEngine(t *testing.T) {
	// Source honours cancellation the way the SQLite source does.
	loader := words.NewLoader(func(ctx context.Context) ([]string, []string, error) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		return smallGuesses, smallSolutions, nil
	})
	e := New(loader, WithClock(clockAt(2)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if resp := e.Handle(ctx, Request{Kind: KindStart}); resp.Kind != RespGuess {
		t.Fatalf("start with cancelled ctx = %+v", resp)
	}
	if e.Status() == Failed {
		t.Fatal("engine marked failed after a cancelled request")
	}
	other := New(loader, WithClock(clockAt(2)))
	if resp := do(t, other, Request{Kind: KindStart}); resp.Kind != RespGuess || resp.Guess != "CRANE" {
		t.Errorf("second engine start = %+v", resp)
	}
}
