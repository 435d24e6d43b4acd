// Package reconciler restores the in-memory session after a restart.
//
// The durable login flag only says a session existed. On startup the
// reconciler confirms it by asking the server for a fresh access token with
// the refresh cookie. A rejection clears both the session and the flag; a
// transport failure is logged and leaves the client unauthenticated without
// touching the flag, so the next start tries again.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophfeed/internal/client/api"
	"github.com/dmitrijs2005/gophfeed/internal/client/loginflag"
	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/dmitrijs2005/gophfeed/internal/client/session"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Outcome is the result of one reconciliation.
type Outcome int

const (
	// OutcomeSkipped: the flag was false, nothing was sent.
	OutcomeSkipped Outcome = iota
	// OutcomeRestored: the server issued a credential and the session is set.
	OutcomeRestored
	// OutcomeRejected: the server refused; session and flag are cleared.
	OutcomeRejected
	// OutcomeUnavailable: the server could not be reached; nothing changed.
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRestored:
		return "restored"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ErrEmptyGrant is returned when a refresh succeeds without an id or token.
var ErrEmptyGrant = errors.New("refresh returned no credential")

// Refresher is the part of api.Client the reconciler needs.
type Refresher interface {
	Refresh(ctx context.Context) (models.AuthResult, error)
}

type Reconciler struct {
	client Refresher
	store  *session.Store
	flag   loginflag.Flag
	log    logging.Logger

	group singleflight.Group

	once    sync.Once
	ready   chan struct{}
	outcome Outcome
}

func New(client Refresher, store *session.Store, flag loginflag.Flag, log logging.Logger) *Reconciler {
	if log == nil {
		log = logging.Discard()
	}
	return &Reconciler{
		client: client,
		store:  store,
		flag:   flag,
		log:    log.With("component", "reconciler"),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the startup reconciliation has finished, whatever its
// outcome.
func (r *Reconciler) Ready() <-chan struct{} {
	return r.ready
}

// RunOnce performs the startup reconciliation exactly once per process.
// Later calls return the first outcome without contacting the server.
func (r *Reconciler) RunOnce(ctx context.Context) Outcome {
	r.once.Do(func() {
		defer close(r.ready)
		r.outcome = r.Reconcile(ctx)
	})
	return r.outcome
}

// Reconcile reads the flag and, when it is set, attempts a silent refresh.
// Repeating it is safe: after a rejection the flag is false and the next call
// is a no-op.
func (r *Reconciler) Reconcile(ctx context.Context) Outcome {
	loggedIn, err := r.flag.IsLoggedIn(ctx)
	if err != nil {
		r.log.Error(ctx, "failed to read login flag", "err", err)
		return OutcomeSkipped
	}
	if !loggedIn {
		r.log.Debug(ctx, "login flag not set, skipping refresh")
		return OutcomeSkipped
	}

	_, err = r.Refresh(ctx)
	switch {
	case err == nil:
		r.log.Info(ctx, "session restored", "user_id", r.store.Snapshot().Identity)
		return OutcomeRestored
	case errors.Is(err, api.ErrUnavailable):
		r.log.Warn(ctx, "silent refresh failed, server unavailable", "err", err)
		return OutcomeUnavailable
	default:
		r.log.Info(ctx, "silent refresh rejected", "err", err)
		return OutcomeRejected
	}
}

// Refresh obtains a new access credential using the refresh cookie.
// Concurrent callers share one request. Transport failures leave everything
// as it was and wrap api.ErrUnavailable; a server rejection clears both the
// session and the flag.
//
// When the grant is for the identity already held, only the credential is
// renewed; if the session was cleared while the request was in flight it
// stays cleared. Otherwise the grant becomes the new session.
func (r *Reconciler) Refresh(ctx context.Context) (session.Session, error) {
	v, err, _ := r.group.Do("refresh", func() (any, error) {
		before := r.store.Snapshot()
		res, err := r.client.Refresh(ctx)
		if err != nil {
			if errors.Is(err, api.ErrUnavailable) {
				return session.Session{}, err
			}
			r.reject(ctx)
			return session.Session{}, fmt.Errorf("refresh: %w", err)
		}
		if res.ID == 0 || res.AccessToken == "" {
			r.reject(ctx)
			return session.Session{}, ErrEmptyGrant
		}

		if before.Authenticated() && before.Identity == res.ID {
			r.store.UpdateCredential(res.AccessToken)
		} else {
			r.store.Set(res.ID, res.AccessToken)
		}
		return r.store.Snapshot(), nil
	})
	if err != nil {
		return session.Session{}, err
	}
	return v.(session.Session), nil
}

func (r *Reconciler) reject(ctx context.Context) {
	r.store.Clear()
	if err := r.flag.MarkLoggedOut(ctx); err != nil {
		r.log.Error(ctx, "failed to clear login flag", "err", err)
	}
}
