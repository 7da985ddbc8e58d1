// Package migrations embeds the sqlite document store schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
