package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/dmitrijs2005/gophfeed/internal/client/api"
	"github.com/dmitrijs2005/gophfeed/internal/client/config"
	"github.com/dmitrijs2005/gophfeed/internal/client/feed"
	"github.com/dmitrijs2005/gophfeed/internal/client/loginflag"
	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/dmitrijs2005/gophfeed/internal/client/reconciler"
	"github.com/dmitrijs2005/gophfeed/internal/client/routing"
	"github.com/dmitrijs2005/gophfeed/internal/client/services"
	"github.com/dmitrijs2005/gophfeed/internal/client/session"
	"github.com/dmitrijs2005/gophfeed/internal/client/storage"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
	"golang.org/x/sync/errgroup"
)

type App struct {
	log logging.Logger

	repos    *storage.Repositories
	sessions *session.Store
	flag     loginflag.Flag
	rec      *reconciler.Reconciler
	feed     *feed.Store
	guard    *routing.Guard

	authService services.AuthService
	postService services.PostService

	reader *bufio.Reader
	out    io.Writer

	// path is the current view; only the REPL goroutine changes it after mount.
	path      string
	mountOnce sync.Once

	shownMu     sync.Mutex
	shownUser   models.UserID
	unsubscribe func()
}

// NewApp opens local storage, restores persisted cookies and wires the
// stores and services for cfg.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	origin, err := originOf(cfg.ServerURL)
	if err != nil {
		return nil, err
	}

	repos, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	jar, err := api.NewPersistentJar(ctx, origin, repos.Cookies, log)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	client, err := api.NewHTTPClient(cfg.ServerURL, &http.Client{Jar: jar}, log)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	a := newApp(client, loginflag.NewSQLite(repos.DB), cfg.DiscardStaleFeed, log, os.Stdin, os.Stdout)
	a.repos = repos
	return a, nil
}

func newApp(client api.Client, flag loginflag.Flag, discardStale bool, log logging.Logger, in io.Reader, out io.Writer) *App {
	if log == nil {
		log = logging.Discard()
	}
	sessions := session.NewStore()
	rec := reconciler.New(client, sessions, flag, log)
	authz := services.NewAuthorizer(sessions, rec, log)
	posts := feed.NewStore(client, sessions, log,
		feed.WithReady(rec.Ready()),
		feed.WithTokenSource(authz),
		feed.WithDiscardStale(discardStale),
	)

	a := &App{
		log:         log,
		sessions:    sessions,
		flag:        flag,
		rec:         rec,
		feed:        posts,
		guard:       routing.NewGuard(flag, log),
		authService: services.NewAuthService(client, sessions, flag, log),
		postService: services.NewPostService(client, authz, posts, log),
		reader:      bufio.NewReader(in),
		out:         out,
		path:        routing.PathPosts,
	}
	a.unsubscribe = sessions.Subscribe(a.onSession)
	return a
}

// onSession tells the user when the session starts or ends, whatever caused
// it: a login, a restored session, a logout or a refresh the server refused.
func (a *App) onSession(s session.Session) {
	a.shownMu.Lock()
	defer a.shownMu.Unlock()

	switch {
	case s.Authenticated() && s.Identity != a.shownUser:
		fmt.Fprintf(a.out, "Logged in as user #%d\n", s.Identity)
	case !s.Authenticated() && a.shownUser != 0:
		fmt.Fprintln(a.out, "Logged out")
	}
	a.shownUser = s.Identity
}

func originOf(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid server url %q", serverURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Close releases local storage.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.repos == nil {
		return nil
	}
	return a.repos.Close()
}

// Run mounts the app on the feed and starts the REPL.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.Mount(ctx, routing.PathPosts)
	fmt.Fprintln(a.out, "Welcome to gophfeed (type 'help' for commands)")
	a.render(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}

// Mount runs once per application load. The silent session restore and the
// first feed fetch start together; an owned-scope fetch waits for the
// restore, a global one does not.
func (a *App) Mount(ctx context.Context, path string) {
	a.mountOnce.Do(func() {
		a.enter(ctx, path)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			out := a.rec.RunOnce(gctx)
			a.log.Debug(gctx, "startup reconciliation finished", "outcome", out.String())
			return nil
		})
		if showsFeed(a.path) {
			g.Go(func() error {
				if err := a.feed.Fetch(gctx); err != nil && !errors.Is(err, feed.ErrUnauthenticated) {
					a.log.Warn(gctx, "initial feed fetch failed", "err", err)
				}
				return nil
			})
		}
		_ = g.Wait()
	})
}

// enter switches the current view, evaluating the guard for protected ones,
// and records the scope the view selects. It reports whether the guard
// redirected.
func (a *App) enter(ctx context.Context, path string) bool {
	p := routing.Normalize(path)
	redirected := false
	if routing.IsProtected(p) {
		if err := a.guard.Mount(ctx); errors.Is(err, routing.ErrRedirect) {
			p = routing.RedirectTarget
			redirected = true
		}
		a.log.Debug(ctx, "route guard evaluated", "path", path, "state", a.guard.State().String())
	}
	a.path = p
	a.feed.SetScope(routing.Select(p))
	return redirected
}

func (a *App) isLoggedIn() bool {
	return a.sessions.Snapshot().Authenticated()
}

func (a *App) getStatus() string {
	s := a.path
	if snap := a.sessions.Snapshot(); snap.Authenticated() {
		s = fmt.Sprintf("user #%d %s", snap.Identity, s)
	}
	return fmt.Sprintf("(%s)", s)
}

func showsFeed(path string) bool {
	return path == routing.PathPosts || path == routing.PathYourPosts
}
