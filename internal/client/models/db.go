// Package models defines the client-side data models shared by the API
// client, the stores and the shell.
package models

import (
	"net/http"
	"time"
)

// Cookie is a transport cookie persisted for the API origin so the ambient
// refresh credential survives a restart. A zero ExpiresAt marks a session
// cookie.
type Cookie struct {
	Name      string
	Value     string
	Path      string
	ExpiresAt time.Time
	Secure    bool
	HttpOnly  bool
	SameSite  http.SameSite
}

// Expired reports whether c is past its expiry at now.
func (c Cookie) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
