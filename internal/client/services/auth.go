// Package services contains application services for the gophfeed client.
// This file defines the authentication service: register, login and logout,
// keeping the in-memory session and the durable login flag in step.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophfeed/internal/client/api"
	"github.com/dmitrijs2005/gophfeed/internal/client/loginflag"
	"github.com/dmitrijs2005/gophfeed/internal/client/session"
	"github.com/dmitrijs2005/gophfeed/internal/common"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create an account; does not log in.
//   - Login: authenticate, set the session and mark the flag.
//   - Logout: end the server session, clear the session and the flag.
//
// Credentials are validated locally before any request is sent.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) (string, error)
	Login(ctx context.Context, username string, password []byte) (session.Session, error)
	Logout(ctx context.Context) error
}

type authService struct {
	client   api.Client
	sessions *session.Store
	flag     loginflag.Flag
	log      logging.Logger
}

func NewAuthService(client api.Client, sessions *session.Store, flag loginflag.Flag, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Discard()
	}
	return &authService{client: client, sessions: sessions, flag: flag, log: log.With("component", "auth")}
}

// Register returns the server's confirmation message.
func (a *authService) Register(ctx context.Context, username string, password []byte) (string, error) {
	if err := common.ValidateCredentials(username, password); err != nil {
		return "", err
	}
	msg, err := a.client.Register(ctx, username, password)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return msg, nil
}

// Login sets the session from the server's grant. The flag is written after
// the session so a crash in between only costs a silent refresh.
func (a *authService) Login(ctx context.Context, username string, password []byte) (session.Session, error) {
	if err := common.ValidateCredentials(username, password); err != nil {
		return session.Session{}, err
	}

	res, err := a.client.Login(ctx, username, password)
	if err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}
	if res.ID == 0 || res.AccessToken == "" {
		return session.Session{}, errors.New("login: server returned no credential")
	}

	a.sessions.Set(res.ID, res.AccessToken)
	if err := a.flag.MarkLoggedIn(ctx); err != nil {
		return a.sessions.Snapshot(), fmt.Errorf("save login flag: %w", err)
	}
	a.log.Info(ctx, "logged in", "user_id", res.ID)
	return a.sessions.Snapshot(), nil
}

// Logout asks the server to drop the refresh cookie. Only on success, or
// when the server no longer recognises the cookie, is local state cleared;
// any other failure leaves the user logged in.
func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	if err != nil && !errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("logout: %w", err)
	}
	if err != nil {
		a.log.Info(ctx, "server session already gone, logging out locally", "err", err)
	}

	a.sessions.Clear()
	if err := a.flag.MarkLoggedOut(ctx); err != nil {
		return fmt.Errorf("clear login flag: %w", err)
	}
	return nil
}
