// Package database provides SQLite connectivity for keygate.
//
// This package manages:
//   - The database connection (WAL mode, foreign keys, busy timeout)
//   - Schema migrations embedded in the binary
//   - Connection lifecycle and health checks
//
// The pool is capped at one connection. SQLite allows a single writer, and
// the conditional UPDATEs that make credential issuance race-free assume that
// writes are serialised.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql, and each one is applied in its own transaction.
package database
