package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/gophfeed/internal/client/api"
	"github.com/dmitrijs2005/gophfeed/internal/client/storage"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
	"github.com/dmitrijs2005/gophfeed/internal/testutil/fakeapi"
)

// newJarClient returns a client that keeps the server's Secure refresh
// cookie the way the shell does.
func newJarClient(t *testing.T, srv *fakeapi.Server) (*api.HTTPClient, error) {
	t.Helper()
	repos, err := storage.Open(context.Background(), ":memory:")
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = repos.Close() })

	jar, err := api.NewPersistentJar(context.Background(), srv.Origin(), repos.Cookies, logging.Discard())
	if err != nil {
		return nil, err
	}
	return api.NewHTTPClient(srv.URL(), &http.Client{Jar: jar}, logging.Discard())
}
