// Package migrations embeds the goose migrations for the SQLite favorite
// store.
package migrations

import "embed"

// FS holds the versioned SQL migrations.
//
//go:embed *.sql
var FS embed.FS
