package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Storm-fyre/silversolver/internal/feedback"
	"github.com/Storm-fyre/silversolver/internal/session"
	"github.com/Storm-fyre/silversolver/internal/store"
	"github.com/Storm-fyre/silversolver/internal/worker"
	"github.com/Storm-fyre/silversolver/internal/words"
)

var (
	testSolutions = []string{"CRANE", "CRATE", "GRATE"}
	testGuesses   = []string{"SLATE", "TRACE", "CRANE", "CARTE", "ROATE", "SALET", "REAST", "CRATE", "GRATE"}
)

func newTestServer(t *testing.T, rps int) *Server {
	t.Helper()
	loader := words.NewLoader(words.Static(testGuesses, testSolutions))
	clock := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 2, 0, time.UTC) } // CRANE
	st := store.NewMemoryStore(func(id string) *worker.Worker {
		return worker.Start(session.New(loader, session.WithClock(clock)))
	})
	t.Cleanup(st.Close)
	return New(Options{
		Store:        st,
		Loader:       loader,
		Tokens:       NewTokens("test-secret", time.Hour),
		RateLimitRPS: rps,
		RateBurst:    rps,
	})
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, s *Server) createRes {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/sessions", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /sessions = %d %s", rec.Code, rec.Body.String())
	}
	var out createRes
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	return out
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) session.Response {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var out session.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthAndIndex(t *testing.T) {
	s := newTestServer(t, 0)
	for _, path := range []string{"/", "/health"} {
		rec := doJSON(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("GET %s content type %q", path, ct)
		}
	}
	if rec := doJSON(t, s, http.MethodGet, "/nope", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d", rec.Code)
	}
}

func TestDebugWords(t *testing.T) {
	s := newTestServer(t, 0)
	rec := doJSON(t, s, http.MethodGet, "/debug/words", "", nil)
	var out map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["solutions"] != 3 || out["guesses"] != len(testGuesses) {
		t.Errorf("debug words = %v", out)
	}
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, 0)
	created := createSession(t, s)
	if created.SessionID == "" || created.Token == "" {
		t.Fatalf("create = %+v", created)
	}
	if created.Response.Kind != session.RespGuess || created.Response.Guess != "CRANE" {
		t.Fatalf("start response = %+v", created.Response)
	}

	// Feedback for CRANE against CRATE leaves only CRATE.
	code := int(feedback.Encode("CRANE", "CRATE"))
	resp := decodeResponse(t, doJSON(t, s, http.MethodPost, "/sessions/current/next", created.Token, map[string]any{"feedback": code}))
	if resp.Kind != session.RespSolved || resp.Guess != "CRATE" {
		t.Errorf("next = %+v", resp)
	}

	resp = decodeResponse(t, doJSON(t, s, http.MethodPost, "/sessions/current/undo", created.Token, nil))
	if resp.Kind != session.RespGuess || !resp.Undone || resp.Guess != "CRANE" || resp.Remaining != 3 {
		t.Errorf("undo = %+v", resp)
	}

	resp = decodeResponse(t, doJSON(t, s, http.MethodPost, "/sessions/current/undo", created.Token, nil))
	if resp.Kind != session.RespError || resp.Error != "Nothing to undo" {
		t.Errorf("second undo = %+v", resp)
	}

	resp = decodeResponse(t, doJSON(t, s, http.MethodPost, "/sessions/current/manual", created.Token, map[string]any{"guess": "grate"}))
	if resp.Kind != session.RespAck || resp.Guess != "GRATE" {
		t.Errorf("manual = %+v", resp)
	}

	// Missing feedback is rejected by the engine, not treated as all grey.
	resp = decodeResponse(t, doJSON(t, s, http.MethodPost, "/sessions/current/next", created.Token, map[string]any{}))
	if resp.Error != "Invalid feedback" {
		t.Errorf("next without feedback = %+v", resp)
	}

	resp = decodeResponse(t, doJSON(t, s, http.MethodPost, "/sessions/current/next", created.Token, map[string]any{"feedback": 0}))
	if resp.Error != "Contradictory feedback!" {
		t.Errorf("contradiction = %+v", resp)
	}

	if rec := doJSON(t, s, http.MethodDelete, "/sessions/current", created.Token, nil); rec.Code != http.StatusOK {
		t.Errorf("DELETE = %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/sessions/current/undo", created.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("action after delete = %d", rec.Code)
	}
}

func TestSessionCookie(t *testing.T) {
	s := newTestServer(t, 0)
	rec := doJSON(t, s, http.MethodPost, "/sessions", "", nil)
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("session cookie missing or not HttpOnly: %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodPost, "/sessions/current/reroll", nil)
	req.AddCookie(cookie)
	out := httptest.NewRecorder()
	s.Handler().ServeHTTP(out, req)
	resp := decodeResponse(t, out)
	if resp.Kind != session.RespGuess || len(resp.Alts) != len(session.Openers) {
		t.Errorf("reroll via cookie = %+v", resp)
	}
}

func TestAuthFailures(t *testing.T) {
	s := newTestServer(t, 0)
	cases := []struct {
		name  string
		token string
		kind  string
		want  int
	}{
		{"no token", "", "undo", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", "undo", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rec := doJSON(t, s, http.MethodPost, "/sessions/current/"+tc.kind, tc.token, nil)
		if rec.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, rec.Code, tc.want)
		}
	}

	// Valid signature, unknown session.
	tok, _, err := NewTokens("test-secret", time.Hour).Sign("no-such-session")
	if err != nil {
		t.Fatal(err)
	}
	if rec := doJSON(t, s, http.MethodPost, "/sessions/current/undo", tok, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown session = %d", rec.Code)
	}

	// Wrong secret.
	forged, _, _ := NewTokens("other-secret", time.Hour).Sign("x")
	if rec := doJSON(t, s, http.MethodPost, "/sessions/current/undo", forged, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("forged token = %d", rec.Code)
	}

	created := createSession(t, s)
	if rec := doJSON(t, s, http.MethodPost, "/sessions/current/bogus", created.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown kind = %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/sessions/current/manual", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+created.Token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	var limited bool
	for i := 0; i < 5; i++ {
		rec := doJSON(t, s, http.MethodPost, "/sessions", "", nil)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected 429 after exceeding burst")
	}
}

func TestTokensRoundTrip(t *testing.T) {
	tk := NewTokens("s3cret", time.Minute)
	tok, exp, err := tk.Sign("abc")
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) > time.Minute || time.Until(exp) <= 0 {
		t.Errorf("exp = %v", exp)
	}
	sid, err := tk.Parse(tok)
	if err != nil || sid != "abc" {
		t.Errorf("Parse = %q, %v", sid, err)
	}
	if _, err := tk.Parse(tok + "x"); err == nil {
		t.Error("tampered token accepted")
	}
}

func TestIPLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(5, 5, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	for _, ip := range []string{"192.0.2.1", "192.0.2.2", "192.0.2.3"} {
		l.get(ip)
	}
	if n := l.size(); n != 3 {
		t.Fatalf("tracked = %d, want 3", n)
	}

	now = now.Add(30 * time.Second)
	l.get("192.0.2.1") // still active
	now = now.Add(45 * time.Second)
	l.get("192.0.2.4")
	if n := l.size(); n != 2 {
		t.Errorf("tracked after sweep = %d, want 2 (one active, one new)", n)
	}
	if _, ok := l.byIP["192.0.2.2"]; ok {
		t.Error("idle client still tracked")
	}
	if _, ok := l.byIP["192.0.2.1"]; !ok {
		t.Error("active client dropped")
	}
}
