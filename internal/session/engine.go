// internal/session/engine.go
//
// Solver engine for a single session.
// Responsibilities:
//   - Own all mutable session state: candidates, current guess, hard-mode
//     constraints and the undo history.
//   - Turn each Request into exactly one Response (start, manual, reroll, undo, next).
//   - Load the dictionary lazily on the first request; a failed load is reported
//     once and every later request answers "Solver unavailable".
//
// State transitions:
//
//	Idle → AwaitingGuess → (Solved | Contradiction) → AwaitingGuess (undo / start)
//
// Notes:
//   - The engine is not safe for concurrent use; internal/worker serialises access.
//   - Opener choice depends only on the injected clock: Openers[second % 7].
package session

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Storm-fyre/silversolver/internal/candidates"
	"github.com/Storm-fyre/silversolver/internal/feedback"
	"github.com/Storm-fyre/silversolver/internal/hardmode"
	"github.com/Storm-fyre/silversolver/internal/selector"
	"github.com/Storm-fyre/silversolver/internal/words"
)

// Openers is the fixed opening rotation.
var Openers = []string{"SLATE", "TRACE", "CRANE", "CARTE", "ROATE", "SALET", "REAST"}

// Status is the engine's position in the state machine.
type Status int

const (
	Idle Status = iota
	AwaitingGuess
	Solved
	Contradiction
	Failed // dictionary load failed; terminal
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingGuess:
		return "awaiting"
	case Solved:
		return "solved"
	case Contradiction:
		return "contradiction"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Engine is one solver session.
type Engine struct {
	loader  *words.Loader
	clock   func() time.Time
	log     zerolog.Logger
	hard    bool
	enc     feedback.Func
	workers int

	dict        *words.Dictionary
	status      Status
	cands       candidates.Set
	guess       string
	constraints hardmode.Constraints
	history     candidates.History
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for opener selection.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithHardMode restricts suggestions to guesses consistent with every revealed clue.
func WithHardMode(on bool) Option {
	return func(e *Engine) { e.hard = on }
}

// WithEncoder replaces feedback.Encode, typically with a pattern table lookup.
func WithEncoder(enc feedback.Func) Option {
	return func(e *Engine) { e.enc = enc }
}

// WithWorkers bounds the goroutines used for scoring (0 = GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New returns an idle engine. loader may be shared between engines.
func New(loader *words.Loader, opts ...Option) *Engine {
	e := &Engine{
		loader: loader,
		clock:  time.Now,
		log:    log.Logger,
		enc:    feedback.Encode,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle processes one request.
func (e *Engine) Handle(ctx context.Context, req Request) Response {
	if resp, ok := e.ensureLoaded(ctx); !ok {
		return resp
	}

	var resp Response
	switch req.Kind {
	case KindStart:
		resp = e.start()
	case KindReroll:
		resp = e.reroll()
	case KindManual:
		resp = e.manual(req.Guess)
	case KindUndo:
		resp = e.undo()
	case KindNext:
		resp = e.next(ctx, req.Feedback)
	default:
		resp = errorResponse(ErrUnknownKind)
	}
	resp.Remaining = len(e.cands)
	resp.Turn = e.history.Len()

	ev := e.log.Debug()
	if resp.Kind == RespError {
		ev = e.log.Info().Err(resp.Cause)
	}
	ev.Str("req", string(req.Kind)).
		Str("resp", string(resp.Kind)).
		Str("guess", resp.Guess).
		Int("remaining", resp.Remaining).
		Str("status", e.status.String()).
		Msg("handled")
	return resp
}

func (e *Engine) ensureLoaded(ctx context.Context) (Response, bool) {
	if e.dict != nil {
		return Response{}, true
	}
	if e.status == Failed {
		return errorResponse(ErrUnavailable), false
	}
	dict, err := e.loader.Load(ctx)
	if err != nil {
		e.status = Failed
		return errorResponse(fmt.Errorf("%w: %w", ErrLoadFailed, err)), false
	}
	e.dict = dict
	return Response{}, true
}

// ---- handlers ----

func (e *Engine) start() Response {
	e.cands = candidates.New(e.dict.Solutions)
	e.history.Reset()
	e.constraints = hardmode.Constraints{}
	e.status = AwaitingGuess
	e.guess = e.opener()
	return Response{Kind: RespGuess, Guess: e.guess, Alts: slices.Clone(Openers)}
}

func (e *Engine) reroll() Response {
	if e.status == Idle {
		return errorResponse(ErrNotStarted)
	}
	e.guess = e.opener()
	return Response{Kind: RespGuess, Guess: e.guess, Alts: slices.Clone(Openers)}
}

func (e *Engine) manual(word string) Response {
	if e.status == Idle {
		return errorResponse(ErrNotStarted)
	}
	w := strings.ToUpper(strings.TrimSpace(word))
	if !words.IsWord(w) || !e.dict.IsGuess(w) {
		e.log.Debug().Str("word", word).Msg("manual word ignored")
		return Response{Kind: RespAck, Ignored: true}
	}
	e.guess = w
	return Response{Kind: RespAck, Guess: w}
}

func (e *Engine) undo() Response {
	snap, ok := e.history.Pop()
	if !ok {
		return errorResponse(ErrNothingToUndo)
	}
	e.restore(snap)
	return Response{Kind: RespGuess, Guess: e.guess, Undone: true}
}

func (e *Engine) next(ctx context.Context, fb int) Response {
	switch {
	case e.status == Idle:
		return errorResponse(ErrNotStarted)
	case !feedback.Valid(fb):
		return errorResponse(ErrInvalidFeedback)
	case e.status == Solved:
		return Response{Kind: RespSolved, Guess: e.cands[0]}
	case e.status == Contradiction:
		return errorResponse(ErrContradiction)
	}

	code := feedback.Code(fb)
	e.history.Push(e.snapshot())
	e.cands = candidates.Filter(e.cands, e.guess, code, e.enc)
	e.constraints.Record(e.guess, code)

	switch len(e.cands) {
	case 0:
		e.status = Contradiction
		return errorResponse(ErrContradiction)
	case 1:
		e.status = Solved
		return Response{Kind: RespSolved, Guess: e.cands[0]}
	}

	opts := selector.Options{Encoder: e.enc, Workers: e.workers}
	if e.hard {
		c := e.constraints
		opts.Hard = &c
	}
	res, err := selector.Select(ctx, e.cands, e.dict.Guesses, opts)
	if err != nil {
		// Leave the session as it was before this request.
		snap, _ := e.history.Pop()
		e.restore(snap)
		return errorResponse(err)
	}
	e.guess = res.BestWord
	return Response{
		Kind:    RespGuess,
		Guess:   res.BestWord,
		Alts:    res.SafeAlternatives,
		AltWarn: res.CostlyAlternative,
	}
}

// ---- state helpers ----

func (e *Engine) opener() string {
	return Openers[e.clock().Second()%len(Openers)]
}

func (e *Engine) snapshot() candidates.Snapshot {
	return candidates.Snapshot{Candidates: e.cands, Guess: e.guess, Constraints: e.constraints}
}

func (e *Engine) restore(s candidates.Snapshot) {
	e.cands = s.Candidates
	e.guess = s.Guess
	e.constraints = s.Constraints
	e.status = AwaitingGuess
}

// Status returns the current state.
func (e *Engine) Status() Status { return e.status }

// CurrentGuess returns the guess the next feedback row applies to.
func (e *Engine) CurrentGuess() string { return e.guess }

// Candidates returns a copy of the remaining candidates.
func (e *Engine) Candidates() candidates.Set { return e.cands.Clone() }

// HistoryLen returns the number of undoable rounds.
func (e *Engine) HistoryLen() int { return e.history.Len() }

// Dictionary returns the loaded dictionary, or nil before the first request.
func (e *Engine) Dictionary() *words.Dictionary { return e.dict }
