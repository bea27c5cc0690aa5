// Package migrations holds the goose-annotated PostgreSQL schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
