// Package migrations embeds the SQL schema applied by cmd/migrate.
package migrations

import "embed"

// FS holds the golang-migrate formatted up/down files.
//
//go:embed *.sql
var FS embed.FS
