// Package feed holds the posts shown by the shell and the scope they were
// requested for.
//
// Responses are applied as they arrive, so when two fetches overlap the one
// that finishes last wins even if the scope changed in between. Stores built
// with WithDiscardStale instead drop a response whose scope or session has
// moved on since the request was sent.
package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/dmitrijs2005/gophfeed/internal/client/session"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
)

var (
	// ErrUnauthenticated is returned, without any request, when the owned
	// scope is fetched while no credential is held.
	ErrUnauthenticated = errors.New("your posts require logging in")
	// ErrStaleResponse reports a response dropped under WithDiscardStale.
	ErrStaleResponse = errors.New("stale feed response discarded")
)

type Status int

const (
	StatusNotLoaded Status = iota
	StatusLoaded
)

// Lister is the part of api.Client the feed needs.
type Lister interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByUser(ctx context.Context, token string, id models.UserID) ([]models.Post, error)
}

// TokenSource supplies the session used for an owned fetch. It may refresh
// an expired credential before returning.
type TokenSource interface {
	Current(ctx context.Context) (session.Session, error)
}

// Feed is an immutable snapshot of the store.
type Feed struct {
	Scope  models.Scope
	Posts  []models.Post
	Status Status

	scopeGen uint64
}

type Option func(*Store)

// WithDiscardStale drops responses that no longer match the current scope
// or session.
func WithDiscardStale(discard bool) Option {
	return func(s *Store) { s.discardStale = discard }
}

// WithReady makes owned fetches wait for ready to close, so they are not
// sent before the startup session reconciliation is over.
func WithReady(ready <-chan struct{}) Option {
	return func(s *Store) { s.ready = ready }
}

func WithTokenSource(ts TokenSource) Option {
	return func(s *Store) { s.tokens = ts }
}

type Store struct {
	client   Lister
	sessions *session.Store
	tokens   TokenSource
	log      logging.Logger

	discardStale bool
	ready        <-chan struct{}

	mu      sync.Mutex
	current atomic.Pointer[Feed]
}

func NewStore(client Lister, sessions *session.Store, log logging.Logger, opts ...Option) *Store {
	if log == nil {
		log = logging.Discard()
	}
	s := &Store{client: client, sessions: sessions, log: log.With("component", "feed")}
	for _, o := range opts {
		o(s)
	}
	s.current.Store(&Feed{Scope: models.ScopeAll})
	return s
}

// Snapshot returns the current feed. Callers must not modify Posts.
func (s *Store) Snapshot() Feed {
	return *s.current.Load()
}

func (s *Store) Scope() models.Scope { return s.Snapshot().Scope }

func (s *Store) Status() Status { return s.Snapshot().Status }

// Posts returns a copy of the current posts in server order.
func (s *Store) Posts() []models.Post {
	p := s.Snapshot().Posts
	out := make([]models.Post, len(p))
	copy(out, p)
	return out
}

// SetScope records the scope for the next Fetch; it does not fetch.
func (s *Store) SetScope(scope models.Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.current.Load()
	if cur.Scope == scope {
		return
	}
	next := *cur
	next.Scope = scope
	next.scopeGen++
	s.current.Store(&next)
}

type tag struct {
	scopeGen   uint64
	owned      bool
	sessionGen uint64
}

// Fetch requests the posts for the current scope and, on success, replaces
// the feed. A null payload yields an empty, loaded feed. On failure the first
// server message is logged, the feed is left as it was and the error is
// returned; nothing is retried.
func (s *Store) Fetch(ctx context.Context) error {
	if s.Scope() == models.ScopeOwnedByCaller && s.ready != nil {
		select {
		case <-s.ready:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	cur := s.Snapshot()
	t := tag{scopeGen: cur.scopeGen, owned: cur.Scope == models.ScopeOwnedByCaller}

	var (
		posts []models.Post
		err   error
	)
	if t.owned {
		var sess session.Session
		sess, err = s.ownedSession(ctx)
		if err != nil {
			return err
		}
		t.sessionGen = sess.Generation
		posts, err = s.client.ListPostsByUser(ctx, sess.Credential, sess.Identity)
	} else {
		posts, err = s.client.ListPosts(ctx)
	}
	if err != nil {
		s.log.Warn(ctx, "failed to fetch posts", "scope", cur.Scope.String(), "err", err.Error())
		return err
	}

	return s.apply(ctx, t, posts)
}

func (s *Store) ownedSession(ctx context.Context) (session.Session, error) {
	sess := s.sessions.Snapshot()
	if !sess.Authenticated() {
		return session.Session{}, ErrUnauthenticated
	}
	if s.tokens != nil {
		var err error
		if sess, err = s.tokens.Current(ctx); err != nil {
			return session.Session{}, err
		}
	}
	if !sess.Authenticated() {
		return session.Session{}, ErrUnauthenticated
	}
	return sess, nil
}

func (s *Store) apply(ctx context.Context, t tag, posts []models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if s.discardStale && s.stale(cur, t) {
		s.log.Debug(ctx, "dropping stale feed response")
		return ErrStaleResponse
	}

	if posts == nil {
		posts = []models.Post{}
	}
	next := Feed{Scope: cur.Scope, Posts: posts, Status: StatusLoaded, scopeGen: cur.scopeGen}
	s.current.Store(&next)
	return nil
}

func (s *Store) stale(cur *Feed, t tag) bool {
	if cur.scopeGen != t.scopeGen {
		return true
	}
	return t.owned && s.sessions.Snapshot().Generation != t.sessionGen
}
