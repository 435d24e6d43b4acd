package common

import "errors"

var (
	// Validation errors raised before any request is sent.
	ErrEmptyUsername    = errors.New("username is required")
	ErrPasswordTooShort = errors.New("password should be at least 6 characters long")
	ErrEmptyContent     = errors.New("type something first")

	// ErrTokenExpired matches the message the server reports when an access
	// or refresh token is past its expiry.
	ErrTokenExpired = errors.New("token has invalid claims: token is expired")
)
