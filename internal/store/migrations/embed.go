// Package migrations embeds the goose SQL migrations shared by the
// PostgreSQL and SQLite dialects.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
