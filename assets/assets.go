// Package assets embeds the SQL migrations shipped with the binaries.
package assets

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
