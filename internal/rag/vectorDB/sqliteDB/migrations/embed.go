// Package migrations embeds the chunk store schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
