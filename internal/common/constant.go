// Package common contains shared constants and sentinel errors used across
// gophfeed components.
package common

// AuthorizationHeaderName carries the bearer access token on outbound
// requests; BearerPrefix precedes the token value.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
)

// RequestIDHeaderName correlates a client request with server-side logs.
const RequestIDHeaderName = "X-Request-ID"

// RefreshTokenCookieName is the ambient credential the server sets on login
// and reads on refresh and logout.
const RefreshTokenCookieName = "refresh_token"

// LoggedInKey is the metadata key of the durable login hint.
const LoggedInKey = "isLoggedIn"

// MinPasswordLength mirrors the server-side password rule.
const MinPasswordLength = 6
