// Package database provides SQLite connectivity and schema migrations for
// Tom.Camp Core.
//
// The database is the single persistent store behind the document store
// adapter (internal/store). It is opened once at startup; failure to open it
// or to apply migrations stops the process.
//
// # Migrations
//
// Migrations are plain SQL files named YYYYMMDD_HHMMSS_description.up.sql
// with an optional matching .down.sql. They are passed in as an fs.FS
// (normally the embedded migrations.FS) and recorded in schema_migrations.
//
//	db, err := database.Open(ctx, database.Config{Path: "./data/tomcamp.db", WALMode: true})
//	if err != nil {
//	    return err
//	}
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
