// Package cli provides the interactive gophfeed command-line client.
//
// It wires configuration, local storage, the API client and the session and
// feed stores, then runs a REPL that behaves like a small single-page app:
// the user navigates between views ("/", "/you", "/about", "/login",
// "/signup"), and the current view decides which posts are fetched.
//
// On start the App mounts once: it restores a previous session in the
// background (see package reconciler) while the first feed is loaded.
// Commands that need a session are offered only while one is held.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
