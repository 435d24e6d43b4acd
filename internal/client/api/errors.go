package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophfeed/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorDetail is one entry of the server's error envelope.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
}

// APIError is a non-2xx response. Messages keeps the envelope order.
type APIError struct {
	StatusCode int
	Code       string
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 && e.Messages[0] != "" {
		return e.Messages[0]
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, text)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Is lets errors.Is(err, ErrUnauthorized) match any 401.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// IsTokenExpired reports whether err is the server's 401 for an expired
// token, as opposed to bad or missing credentials.
func IsTokenExpired(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized && apiErr.Error() == common.ErrTokenExpired.Error()
}

func newAPIError(status int, details []ErrorDetail) *APIError {
	e := &APIError{StatusCode: status}
	for _, d := range details {
		e.Messages = append(e.Messages, d.Message)
	}
	if len(details) > 0 {
		e.Code = details[0].Code
	}
	return e
}
