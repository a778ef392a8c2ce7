// Package migrations holds the goose SQL migrations for the postgres storage backend.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
