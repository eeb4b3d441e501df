// Package migrations embeds the sessionstore schema migration files.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
