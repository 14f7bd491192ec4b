// Package ddl holds the database schema migrations, embedded so a single
// binary can migrate its own schema.
package ddl

import "embed"

//go:embed *.sql
var Migrations embed.FS
