// Package cookies persists the transport cookies of the API origin.
//
// The server keeps its refresh credential in an HttpOnly cookie. A browser
// keeps such cookies across reloads; this repository gives the CLI the same
// property so that the startup refresh can succeed after a restart.
//
// Key Types
//
//   - type Repository       contract used by the persistent cookie jar
//   - type SQLiteRepository SQLite implementation over dbx.DBTX
package cookies
