// internal/session/protocol.go
//
// Request/response protocol spoken by the solver engine.
// Defines:
//   - Kind: the five request kinds a caller may send.
//   - Request / Response: one message each way; every request yields exactly one response.
//   - Sentinel causes behind every error response.
//
// JSON field names are the ones the browser front end consumes.

package session

import (
	"errors"
)

// Kind is a request kind.
type Kind string

const (
	KindStart  Kind = "start"
	KindManual Kind = "manual"
	KindReroll Kind = "reroll"
	KindUndo   Kind = "undo"
	KindNext   Kind = "next"
)

// Valid reports whether k is one of the known request kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindStart, KindManual, KindReroll, KindUndo, KindNext:
		return true
	}
	return false
}

// Request is one message to the engine.
type Request struct {
	Kind     Kind   `json:"kind"`
	Guess    string `json:"guess,omitempty"` // manual only
	Feedback int    `json:"feedback"`       // next only, 0..242
}

// ResponseKind is the variant of a Response.
type ResponseKind string

const (
	RespGuess  ResponseKind = "guess"
	RespAck    ResponseKind = "ack"
	RespSolved ResponseKind = "solved"
	RespError  ResponseKind = "error"
)

// Response is the engine's answer to one Request.
type Response struct {
	Kind    ResponseKind `json:"kind"`
	Guess   string       `json:"guess,omitempty"`
	Alts    []string     `json:"alts,omitempty"`
	AltWarn string       `json:"altWarn,omitempty"` // costly alternative, if any
	Undone  bool         `json:"undone,omitempty"`
	Ignored bool         `json:"ignored,omitempty"` // manual word rejected
	Error   string       `json:"error,omitempty"`

	Remaining int `json:"remaining"` // candidates left
	Turn      int `json:"turn"`      // feedback rows applied

	// Cause is the sentinel (possibly wrapped) behind an error response.
	Cause error `json:"-"`
}

// Err returns the cause of an error response, nil otherwise.
func (r Response) Err() error {
	if r.Kind != RespError {
		return nil
	}
	return r.Cause
}

var (
	ErrContradiction   = errors.New("session: feedback contradicts every candidate")
	ErrNothingToUndo   = errors.New("session: nothing to undo")
	ErrLoadFailed      = errors.New("session: word lists failed to load")
	ErrUnavailable     = errors.New("session: solver unavailable")
	ErrInvalidFeedback = errors.New("session: feedback out of range")
	ErrNotStarted      = errors.New("session: not started")
	ErrUnknownKind     = errors.New("session: unknown request kind")
)

// messages maps causes to the text shown to players. First match wins.
var messages = []struct {
	err error
	msg string
}{
	{ErrContradiction, "Contradictory feedback!"},
	{ErrNothingToUndo, "Nothing to undo"},
	{ErrLoadFailed, "Word lists failed to load"},
	{ErrUnavailable, "Solver unavailable"},
	{ErrInvalidFeedback, "Invalid feedback"},
	{ErrNotStarted, "Game not started"},
	{ErrUnknownKind, "Unknown request"},
}

// Message returns the player-facing text for err.
func Message(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Solver error"
}

func errorResponse(cause error) Response {
	return Response{Kind: RespError, Error: Message(cause), Cause: cause}
}
