// Package storage provides SQLite-based persistence for computed statistics.
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migrations (semver)
//   - entries: one row per (package, path, stat kind) computation
//
// Entries are append-only. The current value of a statistic is the most
// recently created row for its (path, stat kind) pair; older rows are kept
// as history.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("apertium-stats.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.InsertEntries(ctx, entries); err != nil {
//	    return err
//	}
//
//	kind := types.FileLexc
//	latest, err := db.LatestEntries(ctx, "apertium-kaz", &kind)
//
// # Build Tags
//
// The default build uses the pure Go modernc.org/sqlite driver. The
// sqlite_cgo tag selects github.com/mattn/go-sqlite3 instead:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo
//
// Timestamps are stored as fixed-width UTC text so both drivers read and
// order them identically.
package storage
