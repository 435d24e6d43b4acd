package routing

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophfeed/internal/client/loginflag"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
)

// ErrRedirect is returned by Guard.Mount when the view must not be entered;
// the shell navigates to RedirectTarget instead.
var ErrRedirect = errors.New("login required")

const RedirectTarget = PathLogin

type GuardState int

const (
	GuardEntering GuardState = iota
	GuardAllowed
	GuardRedirecting
)

func (s GuardState) String() string {
	switch s {
	case GuardEntering:
		return "entering"
	case GuardAllowed:
		return "allowed"
	case GuardRedirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

// Guard gates protected views on the durable login flag. It is a UX gate,
// not a security boundary: the server still rejects requests without a
// valid credential. The decision is taken on mount only; a view already
// entered is never evicted when the flag changes later.
type Guard struct {
	flag loginflag.Flag
	log  logging.Logger

	mu    sync.Mutex
	state GuardState
}

func NewGuard(flag loginflag.Flag, log logging.Logger) *Guard {
	if log == nil {
		log = logging.Discard()
	}
	return &Guard{flag: flag, log: log.With("component", "guard")}
}

func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Mount evaluates the flag for a fresh entry into a protected view. An
// unreadable flag is treated as logged out.
func (g *Guard) Mount(ctx context.Context) error {
	g.set(GuardEntering)

	ok, err := g.flag.IsLoggedIn(ctx)
	if err != nil {
		g.log.Error(ctx, "failed to read login flag", "err", err)
		ok = false
	}
	if !ok {
		g.set(GuardRedirecting)
		return ErrRedirect
	}
	g.set(GuardAllowed)
	return nil
}

func (g *Guard) set(s GuardState) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}
