// Package appfs embeds the static files shipped with the binaries.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS

const (
	PostgresMigrationsDir = "migrations/postgres"
	SQLiteMigrationsDir   = "migrations/sqlite"
	EmailTemplatesDir     = "templates/email"
)
