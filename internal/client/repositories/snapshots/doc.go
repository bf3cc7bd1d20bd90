// Package snapshots keeps the last full fetch of each collection in the local
// SQLite database, so a restarted client can show rows while the backend is
// unreachable. A snapshot belongs to one user and is replaced wholesale on
// every save. It is read-only data: nothing here is ever sent back.
package snapshots
