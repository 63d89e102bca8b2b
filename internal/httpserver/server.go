// internal/httpserver/server.go
//
// HTTP server wiring for the solver service.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, timeouts,
//     compression, JSON, CORS, per-client rate limiting).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Session endpoints: POST /sessions, POST /sessions/current/{kind},
//     DELETE /sessions/current (see routes_session.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled so the session cookie works.
//   - Engine responses are always 200, including kind "error"; HTTP error codes
//     are reserved for transport problems (bad JSON, missing session, overload).

package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Storm-fyre/silversolver/internal/store"
	"github.com/Storm-fyre/silversolver/internal/words"
)

// Options configures a Server.
type Options struct {
	Store        store.Store
	Loader       *words.Loader // backs /debug/words
	Tokens       *Tokens
	ClientOrigin string
	RateLimitRPS int // <= 0 disables rate limiting
	RateBurst    int
	RateIdle     time.Duration // forget a client's bucket after this long; default 10m
	Timeout      time.Duration
}

// Server bundles router, session store and token signer.
type Server struct {
	r       *chi.Mux
	store   store.Store
	loader  *words.Loader
	tokens  *Tokens
	limiter *ipLimiter
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	s := &Server{
		r:       chi.NewRouter(),
		store:   opts.Store,
		loader:  opts.Loader,
		tokens:  opts.Tokens,
		limiter: newIPLimiter(opts.RateLimitRPS, opts.RateBurst, opts.RateIdle),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)             // add X-Request-ID
	s.r.Use(chimw.RealIP)                // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)             // recover from panics
	s.r.Use(chimw.Timeout(opts.Timeout)) // bound handler time
	s.r.Use(chimw.Compress(5))           // gzip JSON bodies
	s.r.Use(jsonContentType)             // default JSON responses
	s.r.Use(corsFor(opts.ClientOrigin))  // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"silversolver","endpoints":["/health","/debug/words","POST /sessions","POST /sessions/current/{kind}","DELETE /sessions/current"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", s.handleDebugWords)

	s.mountSessions(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.r }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) handleDebugWords(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeError(w, http.StatusServiceUnavailable, "no_dictionary")
		return
	}
	d, err := s.loader.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Word lists failed to load")
		return
	}
	sol, gs := d.Stats()
	_ = json.NewEncoder(w).Encode(map[string]int{"solutions": sol, "guesses": gs, "sessions": s.store.Len()})
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ipLimiter hands out one token bucket per client IP. Buckets unused for
// idle are dropped, checked at most once per idle period.
type ipLimiter struct {
	mu        sync.Mutex
	rps       int
	burst     int
	idle      time.Duration
	byIP      map[string]*ipBucket
	lastSweep time.Time
	now       func() time.Time
}

type ipBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newIPLimiter(rps, burst int, idle time.Duration) *ipLimiter {
	if burst <= 0 {
		burst = max(rps, 1)
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &ipLimiter{
		rps:       rps,
		burst:     burst,
		idle:      idle,
		byIP:      make(map[string]*ipBucket),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		for ip, b := range l.byIP {
			if now.Sub(b.seen) >= l.idle {
				delete(l.byIP, ip)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.byIP[key]
	if !ok {
		b = &ipBucket{lim: rate.NewLimiter(rate.Every(time.Second/time.Duration(l.rps)), l.burst)}
		l.byIP[key] = b
	}
	b.seen = now
	return b.lim
}

// size returns the number of tracked clients.
func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byIP)
}

// middleware rejects clients that exceed their bucket with 429.
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	if l.rps <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !l.get(key).Allow() {
			log.Warn().Str("ip", key).Str("path", r.URL.Path).Msg("rate limited")
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- small util --------------------------------

// writeError writes {"error": msg} with the given status.
func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
