// Package migrations embeds the SQL schema applied by cmd/migrate.
package migrations

import "embed"

// FS holds the up and down scripts. Up scripts are applied in name order,
// down scripts in reverse.
//
//go:embed *.sql
var FS embed.FS
