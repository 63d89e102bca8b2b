// internal/httpserver/token.go
//
// Session tokens.
// A token is an HS256 JWT carrying the session ID ("sid") plus exp/iat. It is
// returned in the POST /sessions body and also set as an HttpOnly cookie, so
// callers may use either "Authorization: Bearer <token>" or the cookie.

package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie.
const CookieName = "silversolver_session"

var ErrInvalidToken = errors.New("invalid token")

// Tokens signs and verifies session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	// Secure marks the cookie Secure and SameSite=None for cross-site front ends.
	Secure bool
}

// NewTokens returns a signer using secret; ttl <= 0 means 24h.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Sign creates a token for session sid.
func (t *Tokens) Sign(sid string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := tok.SignedString(t.secret)
	return ss, exp, err
}

// Parse verifies a token and returns its session ID.
func (t *Tokens) Parse(tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tk *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", ErrInvalidToken
	}
	return sid, nil
}

// setCookie writes the session cookie with appropriate security attributes.
func (t *Tokens) setCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, t.cookie(token, exp, 0))
}

// clearCookie deletes the session cookie.
func (t *Tokens) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, t.cookie("", time.Time{}, -1))
}

func (t *Tokens) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if t.Secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}

// bearerOrCookie extracts a bearer token from the Authorization header or the session cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
