// Package migrations embeds the goose SQL migrations so the server binary
// can bring a database up to date without files on disk.
package migrations

import "embed"

// FS holds the embedded migration files in lexical (version) order.
//
//go:embed *.sql
var FS embed.FS
