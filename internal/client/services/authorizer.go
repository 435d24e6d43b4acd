package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophfeed/internal/client/api"
	"github.com/dmitrijs2005/gophfeed/internal/client/session"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
)

// ErrNotLoggedIn is returned for protected calls without a session.
var ErrNotLoggedIn = errors.New("log in first")

// Refresher renews the access credential and updates the session store.
// The reconciler implements it.
type Refresher interface {
	Refresh(ctx context.Context) (session.Session, error)
}

// Authorizer runs bearer-authenticated calls. A credential whose exp claim
// has passed is refreshed before the call; a call rejected with "token is
// expired" is retried once after a refresh.
type Authorizer struct {
	sessions  *session.Store
	refresher Refresher
	log       logging.Logger
	now       func() time.Time
}

func NewAuthorizer(sessions *session.Store, refresher Refresher, log logging.Logger) *Authorizer {
	if log == nil {
		log = logging.Discard()
	}
	return &Authorizer{sessions: sessions, refresher: refresher, log: log, now: time.Now}
}

// Current returns a session whose credential is not known to be expired.
func (a *Authorizer) Current(ctx context.Context) (session.Session, error) {
	snap := a.sessions.Snapshot()
	if !snap.Authenticated() {
		return session.Session{}, ErrNotLoggedIn
	}
	if !snap.Expired(a.now()) {
		return snap, nil
	}
	a.log.Debug(ctx, "access token expired, refreshing")
	return a.refresh(ctx)
}

// Do calls fn with a usable session, refreshing and retrying once if the
// server reports the token as expired.
func (a *Authorizer) Do(ctx context.Context, fn func(ctx context.Context, s session.Session) error) error {
	snap, err := a.Current(ctx)
	if err != nil {
		return err
	}

	err = fn(ctx, snap)
	if !api.IsTokenExpired(err) {
		return err
	}

	a.log.Debug(ctx, "server rejected expired token, refreshing")
	if snap, err = a.refresh(ctx); err != nil {
		return err
	}
	return fn(ctx, snap)
}

func (a *Authorizer) refresh(ctx context.Context) (session.Session, error) {
	snap, err := a.refresher.Refresh(ctx)
	if err != nil {
		return session.Session{}, err
	}
	if !snap.Authenticated() {
		return session.Session{}, ErrNotLoggedIn
	}
	return snap, nil
}
