// Package session models the auth state the binder consults: whether a
// user is signed in and which bearer token outgoing fetches should carry.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session exposes the authentication state the update cycle and the
// visibility hooks consume.
type Session interface {
	// IsAuthenticated reports whether a usable session exists.
	IsAuthenticated() bool

	// AccessToken returns the bearer token for outgoing requests. The
	// second return is false when no token is available.
	AccessToken() (string, bool)
}

// Static is a fixed-state session, useful for tests and one-shot CLI runs.
type Static struct {
	Authenticated bool
	Token         string
}

func (s Static) IsAuthenticated() bool {
	return s.Authenticated
}

func (s Static) AccessToken() (string, bool) {
	if s.Token == "" {
		return "", false
	}
	return s.Token, true
}

// TokenSession holds a mutable bearer token and derives authentication
// state from it. Tokens that parse as JWTs are considered expired once
// their exp claim passes; opaque tokens count as authenticated while set.
// Listeners registered with OnChange fire whenever the state flips, so
// auth-conditional visibility can re-evaluate.
type TokenSession struct {
	mu        sync.RWMutex
	token     string
	listeners []func(authenticated bool)

	// now is swappable for tests.
	now func() time.Time
}

// NewTokenSession returns an unauthenticated TokenSession.
func NewTokenSession() *TokenSession {
	return &TokenSession{now: time.Now}
}

// IsAuthenticated reports whether a non-expired token is present.
func (s *TokenSession) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usableLocked()
}

// AccessToken returns the current token when the session is usable.
func (s *TokenSession) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.usableLocked() {
		return "", false
	}
	return s.token, true
}

// SetToken installs a new bearer token and notifies listeners.
func (s *TokenSession) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	state := s.usableLocked()
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// Clear drops the token and notifies listeners.
func (s *TokenSession) Clear() {
	s.SetToken("")
}

// OnChange registers a listener invoked with the new authentication state
// after every SetToken or Clear.
func (s *TokenSession) OnChange(fn func(authenticated bool)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *TokenSession) usableLocked() bool {
	if s.token == "" {
		return false
	}
	expiry, ok := tokenExpiry(s.token)
	if !ok {
		// Opaque token; trust it while set.
		return true
	}
	return s.now().Before(expiry)
}

// tokenExpiry extracts the exp claim without verifying the signature.
// Verification belongs to the backend; the client only needs to know
// whether presenting the token is still worthwhile.
func tokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	expires, err := claims.GetExpirationTime()
	if err != nil || expires == nil {
		return time.Time{}, false
	}
	return expires.Time, true
}
