// Package migrations embeds the credential schema for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
