package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophfeed/internal/client/api"
	"github.com/dmitrijs2005/gophfeed/internal/client/feed"
	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/dmitrijs2005/gophfeed/internal/client/reconciler"
	"github.com/dmitrijs2005/gophfeed/internal/client/session"
	"github.com/dmitrijs2005/gophfeed/internal/common"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
	"github.com/dmitrijs2005/gophfeed/internal/mocks"
	"github.com/dmitrijs2005/gophfeed/internal/testutil/fakeapi"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type countingFeed struct {
	calls int
	err   error
}

func (c *countingFeed) Fetch(context.Context) error {
	c.calls++
	return c.err
}

func newPostService(t *testing.T) (*mocks.MockClient, *session.Store, *countingFeed, PostService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	store := session.NewStore()
	store.Set(5, "tok")
	f := &countingFeed{}
	auth := NewAuthorizer(store, &fakeRefresher{store: store, token: "new"}, logging.Discard())
	return client, store, f, NewPostService(client, auth, f, logging.Discard())
}

func TestPostService_CreateRefreshesFeed(t *testing.T) {
	client, _, f, svc := newPostService(t)
	client.EXPECT().CreatePost(gomock.Any(), "tok", "hello").Return(nil)

	require.NoError(t, svc.Create(context.Background(), "hello"))
	require.Equal(t, 1, f.calls)
}

func TestPostService_EditAndDelete(t *testing.T) {
	client, _, f, svc := newPostService(t)
	gomock.InOrder(
		client.EXPECT().UpdatePost(gomock.Any(), "tok", uint64(7), "edited").Return(nil),
		client.EXPECT().DeletePost(gomock.Any(), "tok", uint64(7)).Return(nil),
	)

	require.NoError(t, svc.Edit(context.Background(), 7, "edited"))
	require.NoError(t, svc.Delete(context.Background(), 7))
	require.Equal(t, 2, f.calls)
}

func TestPostService_EmptyContentRejectedLocally(t *testing.T) {
	_, _, f, svc := newPostService(t)

	require.ErrorIs(t, svc.Create(context.Background(), "   "), common.ErrEmptyContent)
	require.ErrorIs(t, svc.Edit(context.Background(), 1, ""), common.ErrEmptyContent)
	require.Zero(t, f.calls)
}

func TestPostService_FailureSkipsRefresh(t *testing.T) {
	client, _, f, svc := newPostService(t)
	forbidden := &api.APIError{StatusCode: http.StatusForbidden, Messages: []string{"invalid request"}}
	client.EXPECT().DeletePost(gomock.Any(), "tok", uint64(3)).Return(forbidden)

	err := svc.Delete(context.Background(), 3)
	require.Error(t, err)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "invalid request", apiErr.Error())
	require.Zero(t, f.calls)
}

func TestPostService_RefreshFailureIsNotAnError(t *testing.T) {
	client, _, f, svc := newPostService(t)
	f.err = errors.New("feed down")
	client.EXPECT().CreatePost(gomock.Any(), "tok", "hi").Return(nil)

	require.NoError(t, svc.Create(context.Background(), "hi"))
	require.Equal(t, 1, f.calls)
}

func TestPostService_RetriesWithRefreshedToken(t *testing.T) {
	client, store, _, svc := newPostService(t)
	gomock.InOrder(
		client.EXPECT().CreatePost(gomock.Any(), "tok", "hi").Return(expiredErr()),
		client.EXPECT().CreatePost(gomock.Any(), "new", "hi").Return(nil),
	)

	require.NoError(t, svc.Create(context.Background(), "hi"))
	require.Equal(t, "new", store.Snapshot().Credential)
}

func TestPostService_NotLoggedIn(t *testing.T) {
	client, store, _, svc := newPostService(t)
	_ = client
	store.Clear()

	require.ErrorIs(t, svc.Create(context.Background(), "hi"), ErrNotLoggedIn)
}

// End to end: expired access token is refreshed through the refresh cookie,
// the post is created and the owned feed shows it.
func TestPostService_AgainstServer_RefreshesExpiredToken(t *testing.T) {
	srv := fakeapi.New(t)
	srv.AddUser("melon", "secret1")
	srv.SetAccessTTL(-time.Minute)

	jarClient, err := newJarClient(t, srv)
	require.NoError(t, err)

	store := session.NewStore()
	flag := &memFlag{}
	auth := NewAuthService(jarClient, store, flag, logging.Discard())
	_, err = auth.Login(context.Background(), "melon", []byte("secret1"))
	require.NoError(t, err)
	require.True(t, store.Snapshot().Expired(time.Now()))

	srv.SetAccessTTL(time.Hour)
	rec := reconciler.New(jarClient, store, flag, logging.Discard())
	authz := NewAuthorizer(store, rec, logging.Discard())
	posts := feed.NewStore(jarClient, store, logging.Discard(), feed.WithTokenSource(authz))
	posts.SetScope(models.ScopeOwnedByCaller)
	svc := NewPostService(jarClient, authz, posts, logging.Discard())

	require.NoError(t, svc.Create(context.Background(), "hello world"))

	require.Equal(t, 1, srv.Calls(fakeapi.RouteRefresh))
	require.False(t, store.Snapshot().Expired(time.Now()))
	got := posts.Posts()
	require.Len(t, got, 1)
	require.Equal(t, "hello world", got[0].Content)
	require.Equal(t, "melon", got[0].AuthorName)
}
