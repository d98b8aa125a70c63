package store

import "embed"

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationFS exposes the embedded goose migrations for database.RunMigrations.
func MigrationFS() embed.FS {
	return migrationFS
}

// MigrationDir is the directory RunMigrations/Migrator expect within
// MigrationFS.
const MigrationDir = "migrations"
