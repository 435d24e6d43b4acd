package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophfeed/internal/client/config"
	"github.com/dmitrijs2005/gophfeed/internal/client/feed"
	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/dmitrijs2005/gophfeed/internal/client/routing"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
	"github.com/dmitrijs2005/gophfeed/internal/testutil/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "hunter22"

// newTestApp builds a fully wired App against srv with a file database in
// dir, reading commands from in.
func newTestApp(t *testing.T, srv *fakeapi.Server, dir, in string) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		ServerURL:    srv.URL(),
		DatabasePath: filepath.Join(dir, "gophfeed.db"),
	}
	a, err := NewApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	out := &bytes.Buffer{}
	a.reader = rdr(in)
	a.out = out
	return a, out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = old })
}

func TestApp_MountLoggedOut_NoRefreshAndGlobalFeed(t *testing.T) {
	srv := fakeapi.New(t)
	author := srv.AddUser("melon_usk", testPassword)
	srv.AddPost(author, "first!")

	a, out := newTestApp(t, srv, t.TempDir(), "")
	a.Mount(context.Background(), routing.PathPosts)
	a.render(context.Background())

	assert.Equal(t, 0, srv.Calls(fakeapi.RouteRefresh))
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, models.ScopeAll, a.feed.Scope())
	assert.Contains(t, out.String(), "first!")
	assert.Contains(t, out.String(), "melon_usk")
}

func TestApp_MountRunsOnce(t *testing.T) {
	srv := fakeapi.New(t)
	a, _ := newTestApp(t, srv, t.TempDir(), "")

	a.Mount(context.Background(), routing.PathPosts)
	a.Mount(context.Background(), routing.PathPosts)

	assert.Equal(t, 1, srv.Calls(fakeapi.RoutePosts))
}

func TestApp_EmptyFeed(t *testing.T) {
	srv := fakeapi.New(t)
	a, out := newTestApp(t, srv, t.TempDir(), "")
	a.Mount(context.Background(), routing.PathPosts)
	a.render(context.Background())

	assert.Equal(t, feed.StatusLoaded, a.feed.Status())
	assert.Contains(t, out.String(), "There's nothing here")
}

func TestApp_ProtectedViewRedirectsWhenLoggedOut(t *testing.T) {
	srv := fakeapi.New(t)
	a, _ := newTestApp(t, srv, t.TempDir(), "")
	a.Mount(context.Background(), routing.PathYourPosts)

	assert.Equal(t, routing.PathLogin, a.path)
	assert.Equal(t, models.ScopeAll, a.feed.Scope())
	assert.Equal(t, 0, srv.Calls(fakeapi.RoutePostsByUser))

	err := a.Navigate(context.Background(), routing.PathYourPosts)
	assert.ErrorIs(t, err, routing.ErrRedirect)
	assert.Equal(t, routing.PathLogin, a.path)
}

func TestApp_LoginThenLogout_HidesProtectedItems(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser("melon_usk", testPassword)
	stubPassword(t, testPassword)

	a, out := newTestApp(t, srv, t.TempDir(), "melon_usk\n")
	a.Mount(context.Background(), routing.PathPosts)

	require.NoError(t, a.Login(context.Background()))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, routing.PathPosts, a.path)
	assert.Contains(t, out.String(), "Logged in as user #")

	out.Reset()
	require.NoError(t, a.Nav(context.Background()))
	assert.Contains(t, out.String(), "*Your* posts")

	out.Reset()
	require.NoError(t, a.Logout(context.Background()))
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, routing.PathLogin, a.path)
	assert.Contains(t, out.String(), "Logged out")

	stored, err := a.repos.Cookies.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored, "refresh cookie gone from disk")

	out.Reset()
	require.NoError(t, a.Nav(context.Background()))
	assert.NotContains(t, out.String(), "*Your* posts")

	loggedIn, err := a.flag.IsLoggedIn(context.Background())
	require.NoError(t, err)
	assert.False(t, loggedIn)
}

func TestApp_LoginRejected(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser("melon_usk", testPassword)
	stubPassword(t, "wrong-password")

	a, out := newTestApp(t, srv, t.TempDir(), "melon_usk\n")
	a.Mount(context.Background(), routing.PathPosts)

	require.Error(t, a.Login(context.Background()))
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Login failed")
}

func TestApp_CreateEditDeletePost(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser("melon_usk", testPassword)
	stubPassword(t, testPassword)

	in := "melon_usk\n" +
		"hello there\n\n" +
		"hello again\n\n" +
		"y\n"
	a, out := newTestApp(t, srv, t.TempDir(), in)
	ctx := context.Background()
	a.Mount(ctx, routing.PathPosts)
	require.NoError(t, a.Login(ctx))

	require.NoError(t, a.Create(ctx))
	posts := srv.Posts()
	require.Len(t, posts, 1)
	assert.Contains(t, out.String(), "hello there")

	id := posts[0].ID
	require.NoError(t, a.Edit(ctx, []string{formatUint(id)}))
	require.Len(t, a.feed.Posts(), 1)
	assert.Equal(t, "hello again", a.feed.Posts()[0].Content)

	require.NoError(t, a.Delete(ctx, []string{formatUint(id)}))
	assert.Empty(t, srv.Posts())
	assert.Empty(t, a.feed.Posts())
}

func TestApp_EditRequiresID(t *testing.T) {
	srv := fakeapi.New(t)
	a, out := newTestApp(t, srv, t.TempDir(), "")

	err := a.Edit(context.Background(), nil)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out.String(), "Usage: edit <id>")
}

func TestApp_UnknownPathRendersNotFound(t *testing.T) {
	srv := fakeapi.New(t)
	a, out := newTestApp(t, srv, t.TempDir(), "")
	a.Mount(context.Background(), routing.PathPosts)

	require.NoError(t, a.Navigate(context.Background(), "/nowhere"))
	assert.Contains(t, out.String(), "404")
	assert.Equal(t, models.ScopeAll, a.feed.Scope())
}

func TestApp_RestartRestoresSessionFromCookie(t *testing.T) {
	srv := fakeapi.New(t)
	me := srv.AddUser("melon_usk", testPassword)
	other := srv.AddUser("someone", testPassword)
	srv.AddPost(me, "mine")
	srv.AddPost(other, "theirs")
	stubPassword(t, testPassword)
	dir := t.TempDir()
	ctx := context.Background()

	first, _ := newTestApp(t, srv, dir, "melon_usk\n")
	first.Mount(ctx, routing.PathPosts)
	require.NoError(t, first.Login(ctx))
	require.NoError(t, first.Close())

	second, out := newTestApp(t, srv, dir, "")
	second.Mount(ctx, routing.PathYourPosts)
	second.render(ctx)

	assert.Equal(t, 1, srv.Calls(fakeapi.RouteRefresh))
	assert.True(t, second.isLoggedIn())
	assert.Equal(t, me, second.sessions.Snapshot().Identity)
	assert.Equal(t, routing.PathYourPosts, second.path)
	assert.Contains(t, out.String(), fmt.Sprintf("Logged in as user #%d", me))
	assert.Contains(t, out.String(), "mine")
	assert.NotContains(t, out.String(), "theirs")
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

func TestApp_LogoutInSameProcessReachesServer(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser("melon_usk", testPassword)
	stubPassword(t, testPassword)
	ctx := context.Background()

	a, _ := newTestApp(t, srv, t.TempDir(), "melon_usk\n")
	a.Mount(ctx, routing.PathPosts)
	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.Logout(ctx))

	assert.Equal(t, 1, srv.Calls(fakeapi.RouteLogout))
	assert.False(t, a.isLoggedIn())
}

func TestApp_ExpiredTokenRefreshedInSameProcess(t *testing.T) {
	srv := fakeapi.New(t)
	me := srv.AddUser("melon_usk", testPassword)
	srv.SetAccessTTL(-time.Minute)
	stubPassword(t, testPassword)
	ctx := context.Background()

	a, _ := newTestApp(t, srv, t.TempDir(), "melon_usk\n")
	a.Mount(ctx, routing.PathPosts)
	require.NoError(t, a.Login(ctx))
	srv.SetAccessTTL(time.Hour)

	require.NoError(t, a.Navigate(ctx, routing.PathYourPosts))

	assert.Equal(t, 1, srv.Calls(fakeapi.RouteRefresh))
	assert.Equal(t, 1, srv.Calls(fakeapi.RoutePostsByUser))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, me, a.sessions.Snapshot().Identity)
}

func TestApp_GlobalFeedLoadsBeforeSessionIsRestored(t *testing.T) {
	srv := fakeapi.New(t)
	me := srv.AddUser("melon_usk", testPassword)
	srv.AddPost(me, "hello")
	stubPassword(t, testPassword)
	dir := t.TempDir()
	ctx := context.Background()

	first, _ := newTestApp(t, srv, dir, "melon_usk\n")
	first.Mount(ctx, routing.PathPosts)
	require.NoError(t, first.Login(ctx))
	require.NoError(t, first.Close())

	hold := srv.Hold(fakeapi.RouteRefresh)
	second, _ := newTestApp(t, srv, dir, "")

	done := make(chan struct{})
	go func() {
		defer close(done)
		second.Mount(ctx, routing.PathPosts)
	}()

	<-hold.Arrived()
	require.Eventually(t, func() bool {
		return second.feed.Status() == feed.StatusLoaded
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, second.isLoggedIn(), "feed arrived while the refresh is still parked")
	require.Len(t, second.feed.Posts(), 1)

	hold.Release()
	<-done
	assert.True(t, second.isLoggedIn())
	assert.Equal(t, me, second.sessions.Snapshot().Identity)
}

func TestApp_FailedFetchIsNotReportedAsLoading(t *testing.T) {
	srv := fakeapi.New(t)
	srv.FailNext(fakeapi.RoutePosts, http.StatusInternalServerError, "database is down")

	a, out := newTestApp(t, srv, t.TempDir(), "")
	a.Mount(context.Background(), routing.PathPosts)
	a.render(context.Background())

	assert.Equal(t, feed.StatusNotLoaded, a.feed.Status())
	assert.Contains(t, out.String(), "Nothing loaded yet")
	assert.NotContains(t, out.String(), "Loading")
}

func TestApp_NavigateNormalizesTypedPath(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser("melon_usk", testPassword)
	stubPassword(t, testPassword)
	ctx := context.Background()

	a, _ := newTestApp(t, srv, t.TempDir(), "melon_usk\n")
	a.Mount(ctx, routing.PathPosts)
	require.NoError(t, a.Login(ctx))

	require.NoError(t, a.Navigate(ctx, "you/"))
	assert.Equal(t, routing.PathYourPosts, a.path)
	assert.Equal(t, models.ScopeOwnedByCaller, a.feed.Scope())
}
