// Package api is the HTTP client for the posting service.
//
// Every response is wrapped in an envelope: {"data": ...} on success and
// {"errors": [{"message", "code", "field"}]} otherwise. Only the first error
// message is surfaced to callers through *APIError. Transport failures are
// reported as ErrUnavailable.
//
// The refresh token travels as an HTTP-only cookie; PersistentJar keeps it in
// the local database so a restarted client can still refresh its session.
package api
