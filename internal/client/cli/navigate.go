package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophfeed/internal/client/feed"
	"github.com/dmitrijs2005/gophfeed/internal/client/routing"
)

const aboutText = `gophfeed is a minimal social feed client.
Everyone can read the global feed; log in to post and to manage your own posts.`

// Navigate moves to path. Protected views go through the guard, which
// redirects to /login when the durable flag says no session exists. Views
// that show posts fetch them for the scope the path selects.
func (a *App) Navigate(ctx context.Context, path string) error {
	if a.enter(ctx, path) {
		fmt.Fprintln(a.out, "Log in to see this page (type 'login')")
		return routing.ErrRedirect
	}

	switch a.path {
	case routing.PathLogin:
		return a.Login(ctx)
	case routing.PathSignup:
		return a.Register(ctx)
	}
	return a.List(ctx)
}

// Nav prints the navigation items visible for the current session.
func (a *App) Nav(_ context.Context) error {
	for _, it := range routing.VisibleItems(a.sessions.Snapshot()) {
		marker := " "
		if it.Path == a.path {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %-8s %s\n", marker, it.Path, it.Name)
	}
	return nil
}

// List refetches the current view's posts and prints them.
func (a *App) List(ctx context.Context) error {
	if !showsFeed(a.path) {
		a.render(ctx)
		return nil
	}
	err := a.feed.Fetch(ctx)
	switch {
	case errors.Is(err, feed.ErrUnauthenticated):
		fmt.Fprintln(a.out, "Log in to see your posts")
	case err != nil && !errors.Is(err, feed.ErrStaleResponse):
		fmt.Fprintln(a.out, "Could not load posts:", err)
	}
	a.render(ctx)
	return err
}

func (a *App) render(_ context.Context) {
	if !routing.Known(a.path) {
		fmt.Fprintln(a.out, "404: page not found")
		return
	}
	switch a.path {
	case routing.PathPosts, routing.PathYourPosts:
		printFeed(a.out, a.feed.Snapshot())
	case routing.PathAbout:
		fmt.Fprintln(a.out, aboutText)
	case routing.PathLogin:
		fmt.Fprintln(a.out, "Type 'login' to log in or 'register' to sign up")
	case routing.PathSignup:
		fmt.Fprintln(a.out, "Type 'register' to create an account")
	}
}
