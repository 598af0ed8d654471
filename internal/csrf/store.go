// Package csrf keeps the per-session tokens that mutating requests must
// echo back. The store is an ancillary collaborator of the HTTP layer, not
// part of the mediation pipeline.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultTTL bounds how long an issued token stays valid.
	DefaultTTL = time.Hour
	// DefaultMaxSessions caps the session map so an unauthenticated
	// endpoint cannot grow it without bound.
	DefaultMaxSessions = 10000

	tokenBytes = 32
)

// Store maps session ids to their current token. Expired and
// least-recently-used sessions are dropped by the underlying cache on its
// own timer; validation never sees a stale token.
type Store struct {
	tokens *expirable.LRU[string, string]
	ttl    time.Duration
}

// NewStore creates a bounded token store. Non-positive arguments fall back
// to the defaults.
func NewStore(maxSessions int, ttl time.Duration) *Store {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		tokens: expirable.NewLRU[string, string](maxSessions, nil, ttl),
		ttl:    ttl,
	}
}

// Issue mints a fresh token for the session, replacing any previous one.
func (s *Store) Issue(sessionID string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	s.tokens.Add(sessionID, token)
	return token, nil
}

// Validate reports whether token is the session's current, unexpired token.
// The comparison is constant-time.
func (s *Store) Validate(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	current, ok := s.tokens.Get(sessionID)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(current), []byte(token)) == 1
}

// Revoke drops the session's token immediately.
func (s *Store) Revoke(sessionID string) {
	s.tokens.Remove(sessionID)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.tokens.Len()
}

// TTL returns the configured token lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
