// Package mocks holds gomock mocks for the client's outbound interfaces.
//
// To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	client := mocks.NewMockClient(ctrl)
//	client.EXPECT().Refresh(gomock.Any()).Return(models.AuthResult{ID: 5, AccessToken: "tok"}, nil)
package mocks

// MockClient mirrors api.Client:
// Register, Login, Refresh, Logout, ListPosts, ListPostsByUser, CreatePost, UpdatePost, DeletePost
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=api_client_mock.go github.com/dmitrijs2005/gophfeed/internal/client/api Client
