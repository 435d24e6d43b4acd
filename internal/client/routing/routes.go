// Package routing maps shell paths to views: which navigation items are
// visible, which content scope a path selects and whether a protected view
// may be entered.
package routing

import (
	"strings"

	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/dmitrijs2005/gophfeed/internal/client/session"
)

const (
	PathPosts     = "/"
	PathYourPosts = "/you"
	PathAbout     = "/about"
	PathLogin     = "/login"
	PathSignup    = "/signup"
)

type NavItem struct {
	Name      string
	Path      string
	Protected bool
}

// NavItems in display order.
var NavItems = []NavItem{
	{Name: "Posts", Path: PathPosts},
	{Name: "*Your* posts", Path: PathYourPosts, Protected: true},
	{Name: "What is this?!", Path: PathAbout},
}

// VisibleItems hides protected items while s has no credential.
func VisibleItems(s session.Session) []NavItem {
	out := make([]NavItem, 0, len(NavItems))
	for _, it := range NavItems {
		if it.Protected && !s.Authenticated() {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Select derives the feed scope from a navigation target. Only the exact
// path "/you" is owned; every other path, unknown and unnormalized ones
// included, is global. Callers normalize user input first.
func Select(path string) models.Scope {
	if path == PathYourPosts {
		return models.ScopeOwnedByCaller
	}
	return models.ScopeAll
}

// IsProtected reports whether path is behind the route guard. Like Select
// it matches the exact path.
func IsProtected(path string) bool {
	return path == PathYourPosts
}

// Known reports whether path names a view.
func Known(path string) bool {
	switch Normalize(path) {
	case PathPosts, PathYourPosts, PathAbout, PathLogin, PathSignup:
		return true
	}
	return false
}

// Normalize trims blanks and trailing slashes and ensures a leading slash.
func Normalize(path string) string {
	p := strings.TrimSpace(path)
	p = strings.TrimRight(p, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
