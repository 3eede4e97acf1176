package migrations

import "embed"

// Files contiene los .sql; se aplican en orden de nombre.
//
//go:embed *.sql
var Files embed.FS
