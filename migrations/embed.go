// Package migrations embeds the versioned PostgreSQL schema.
package migrations

import "embed"

// FS holds the up/down SQL files consumed by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
