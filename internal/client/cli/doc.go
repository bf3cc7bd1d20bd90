// Package cli provides the interactive taskmark command-line client.
//
// It wires configuration, the local session database, the backend client,
// the session manager and one store per collection, then runs a REPL on top.
// A background watcher pings the backend and re-fetches both stores when the
// connection comes back.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
