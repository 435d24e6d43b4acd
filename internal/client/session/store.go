// Package session holds the caller's in-memory session: identity and access
// credential. Nothing here is persisted; a restart always begins
// unauthenticated and relies on the reconciler to restore the session.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

// Session is an immutable snapshot of the credential store.
//
// Identity is zero and Credential empty iff the user is unauthenticated.
// Generation increases on every mutation, so two snapshots with the same
// generation describe the same state. ExpiresAt is read from the access
// token's exp claim when the token is a JWT, zero otherwise.
type Session struct {
	Identity   models.UserID
	Credential string
	ExpiresAt  time.Time
	Generation uint64
}

// Authenticated reports whether the snapshot carries a credential.
func (s Session) Authenticated() bool {
	return s.Credential != ""
}

// Expired reports whether the credential is known to be past its expiry.
// Tokens without a readable exp claim are never considered expired here;
// the server remains the authority.
func (s Session) Expired(now time.Time) bool {
	return s.Authenticated() && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store is the credential store. Reads are lock-free; every mutation
// replaces the whole snapshot.
type Store struct {
	mu      sync.Mutex // serialises writers
	current atomic.Pointer[Session]

	subsMu sync.Mutex
	subs   map[int]func(Session)
	nextID int
}

func NewStore() *Store {
	s := &Store{subs: make(map[int]func(Session))}
	s.current.Store(&Session{})
	return s
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Session {
	return *s.current.Load()
}

// Set overwrites the session. A zero identity or an empty credential cannot
// form a session and is treated as Clear.
func (s *Store) Set(identity models.UserID, credential string) {
	if identity == 0 || credential == "" {
		s.Clear()
		return
	}
	s.replace(func(Session) Session {
		return Session{Identity: identity, Credential: credential, ExpiresAt: credentialExpiry(credential)}
	})
}

// Clear resets to the unauthenticated session.
func (s *Store) Clear() {
	s.replace(func(Session) Session { return Session{} })
}

// UpdateCredential swaps only the credential, keeping the identity. It is a
// no-op while unauthenticated; an empty credential clears the session.
func (s *Store) UpdateCredential(credential string) {
	if credential == "" {
		s.Clear()
		return
	}
	s.replace(func(old Session) Session {
		if old.Identity == 0 {
			return old
		}
		return Session{Identity: old.Identity, Credential: credential, ExpiresAt: credentialExpiry(credential)}
	})
}

// Subscribe registers fn to be called with every new snapshot. The returned
// func removes the subscription.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) replace(next func(Session) Session) {
	s.mu.Lock()
	old := s.current.Load()
	n := next(*old)
	n.Generation = old.Generation
	if n == *old {
		s.mu.Unlock()
		return
	}
	n.Generation = old.Generation + 1
	s.current.Store(&n)
	s.mu.Unlock()

	s.notify(n)
}

func (s *Store) notify(snap Session) {
	s.subsMu.Lock()
	fns := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// credentialExpiry reads exp without verifying the signature; the client
// has no key and only uses the value to refresh ahead of a certain 401.
func credentialExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
