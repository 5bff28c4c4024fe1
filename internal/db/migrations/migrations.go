// Package migrations embeds the goose SQL migrations for the session history.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
