// Package migrations embeds the SQL migration files so the migrate
// command works without a checkout of the source tree.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
