package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophfeed/internal/client/api"
	"github.com/dmitrijs2005/gophfeed/internal/client/session"
	"github.com/dmitrijs2005/gophfeed/internal/common"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// fakeRefresher swaps the credential in the store, as the reconciler does.
type fakeRefresher struct {
	store *session.Store
	token string
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(context.Context) (session.Session, error) {
	f.calls++
	if f.err != nil {
		return session.Session{}, f.err
	}
	f.store.UpdateCredential(f.token)
	return f.store.Snapshot(), nil
}

func expiredErr() error {
	return &api.APIError{StatusCode: http.StatusUnauthorized, Messages: []string{common.ErrTokenExpired.Error()}}
}

func jwtWithExp(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).
		SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestAuthorizer_NotLoggedIn(t *testing.T) {
	a := NewAuthorizer(session.NewStore(), &fakeRefresher{}, logging.Discard())

	called := false
	err := a.Do(context.Background(), func(context.Context, session.Session) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrNotLoggedIn)
	require.False(t, called)
}

func TestAuthorizer_PassesCurrentCredential(t *testing.T) {
	store := session.NewStore()
	store.Set(5, "tok")
	r := &fakeRefresher{store: store}
	a := NewAuthorizer(store, r, nil)

	var got string
	require.NoError(t, a.Do(context.Background(), func(_ context.Context, s session.Session) error {
		got = s.Credential
		return nil
	}))
	require.Equal(t, "tok", got)
	require.Zero(t, r.calls)
}

func TestAuthorizer_RetriesOnceAfterExpiredToken(t *testing.T) {
	store := session.NewStore()
	store.Set(5, "old")
	r := &fakeRefresher{store: store, token: "new"}
	a := NewAuthorizer(store, r, logging.Discard())

	var seen []string
	err := a.Do(context.Background(), func(_ context.Context, s session.Session) error {
		seen = append(seen, s.Credential)
		if s.Credential == "old" {
			return expiredErr()
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"old", "new"}, seen)
	require.Equal(t, 1, r.calls)
	require.EqualValues(t, 5, store.Snapshot().Identity)
}

func TestAuthorizer_NoSecondRetry(t *testing.T) {
	store := session.NewStore()
	store.Set(5, "old")
	r := &fakeRefresher{store: store, token: "new"}
	a := NewAuthorizer(store, r, logging.Discard())

	calls := 0
	err := a.Do(context.Background(), func(context.Context, session.Session) error {
		calls++
		return expiredErr()
	})
	require.True(t, api.IsTokenExpired(err))
	require.Equal(t, 2, calls)
	require.Equal(t, 1, r.calls)
}

func TestAuthorizer_OtherErrorsNotRetried(t *testing.T) {
	store := session.NewStore()
	store.Set(5, "tok")
	r := &fakeRefresher{store: store}
	a := NewAuthorizer(store, r, logging.Discard())

	forbidden := &api.APIError{StatusCode: http.StatusForbidden, Messages: []string{"invalid request"}}
	err := a.Do(context.Background(), func(context.Context, session.Session) error { return forbidden })
	require.ErrorIs(t, err, forbidden)
	require.Zero(t, r.calls)
}

func TestAuthorizer_RefreshFailureSurfaces(t *testing.T) {
	store := session.NewStore()
	store.Set(5, "old")
	boom := errors.New("refresh: bad credentials")
	a := NewAuthorizer(store, &fakeRefresher{store: store, err: boom}, logging.Discard())

	err := a.Do(context.Background(), func(context.Context, session.Session) error { return expiredErr() })
	require.ErrorIs(t, err, boom)
}

func TestAuthorizer_ProactiveRefreshOfExpiredJWT(t *testing.T) {
	store := session.NewStore()
	store.Set(5, jwtWithExp(t, time.Now().Add(-time.Minute)))
	fresh := jwtWithExp(t, time.Now().Add(time.Hour))
	r := &fakeRefresher{store: store, token: fresh}
	a := NewAuthorizer(store, r, logging.Discard())

	s, err := a.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, fresh, s.Credential)
	require.Equal(t, 1, r.calls)

	s, err = a.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, fresh, s.Credential)
	require.Equal(t, 1, r.calls)
}
