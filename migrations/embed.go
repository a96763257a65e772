// Package migrations embeds the SQL schema into the binary.
//
// Files are named YYYYMMDD_HHMMSS_description.{up,down}.sql and applied by
// database.DB.Migrate in version order.
package migrations

import "embed"

// FS holds every migration file at its root.
//
//go:embed *.sql
var FS embed.FS
