// Package database stores the run history in SQLite.
//
// Each run is one row: a few summary columns for listing, plus the full
// run report as JSON. The history is audit data only; no run reads it.
//
// SQLite comes from modernc.org/sqlite, which is CGO-free, so the binary
// cross-compiles. WAL mode is enabled by default.
package database
