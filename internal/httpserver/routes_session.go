// internal/httpserver/routes_session.go
//
// HTTP routes for solver sessions.
//   - POST   /sessions                  → create a session, run "start", return token + response
//   - POST   /sessions/current/{kind}   → send one request (start, manual, reroll, undo, next)
//   - DELETE /sessions/current          → end the session and clear the cookie
//
// The current session is resolved from the bearer token or the session cookie.
// Each session is a worker goroutine, so requests for one session are handled
// one at a time in arrival order.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Storm-fyre/silversolver/internal/session"
	"github.com/Storm-fyre/silversolver/internal/store"
	"github.com/Storm-fyre/silversolver/internal/worker"
)

type ctxSessionKey struct{}

type currentSession struct {
	ID     string
	Worker *worker.Worker
}

// createRes is returned by POST /sessions.
type createRes struct {
	SessionID string           `json:"sessionId"`
	Token     string           `json:"token"`
	Response  session.Response `json:"response"`
}

// actionReq is the body of POST /sessions/current/{kind}.
// Feedback is a pointer so a missing value is told apart from 0 (all grey).
type actionReq struct {
	Guess    string `json:"guess"`
	Feedback *int   `json:"feedback"`
}

// mountSessions registers all /sessions routes.
func (s *Server) mountSessions(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.With(s.limiter.middleware).Post("/", s.handleCreate)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.With(s.limiter.middleware).Post("/current/{kind}", s.handleAction)
			r.Delete("/current", s.handleDelete)
		})
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, wk, err := s.store.Create(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("create session")
		writeError(w, http.StatusInternalServerError, "create_failed")
		return
	}
	resp, err := wk.Do(r.Context(), session.Request{Kind: session.KindStart})
	if err != nil {
		_ = s.store.Delete(context.Background(), id)
		writeDoError(w, err)
		return
	}
	tok, exp, err := s.tokens.Sign(id)
	if err != nil {
		_ = s.store.Delete(context.Background(), id)
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.tokens.setCookie(w, tok, exp)
	log.Info().Str("session", id).Str("opener", resp.Guess).Msg("session created")
	_ = json.NewEncoder(w).Encode(createRes{SessionID: id, Token: tok, Response: resp})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	cur := r.Context().Value(ctxSessionKey{}).(*currentSession)

	kind := session.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusNotFound, "unknown_kind")
		return
	}
	var body actionReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	req := session.Request{Kind: kind, Guess: body.Guess, Feedback: -1}
	if body.Feedback != nil {
		req.Feedback = *body.Feedback
	}

	resp, err := cur.Worker.Do(r.Context(), req)
	if err != nil {
		writeDoError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	cur := r.Context().Value(ctxSessionKey{}).(*currentSession)
	if err := s.store.Delete(r.Context(), cur.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	s.tokens.clearCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// requireSession resolves the caller's session or answers 401/404.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerOrCookie(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		id, err := s.tokens.Parse(tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		wk, err := s.store.Get(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "session_not_found")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, &currentSession{ID: id, Worker: wk})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeDoError maps worker failures onto HTTP statuses.
func writeDoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, worker.ErrClosed):
		writeError(w, http.StatusNotFound, "session_not_found")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout")
	default:
		writeError(w, http.StatusServiceUnavailable, "unavailable")
	}
}
