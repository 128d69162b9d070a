// Package database provides SQLite storage for the media share
// server.
//
// It owns the schema for:
//   - File metadata (one row per uploaded asset)
//   - Deferred generation tasks still owed by the trusted client
//   - The admin account and its sessions
//
// All statements are parameterized; the only text spliced into SQL is
// the table-name prefix, which is fixed at configuration time. The
// database uses WAL mode for concurrent read performance.
package database
