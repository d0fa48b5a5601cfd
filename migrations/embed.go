// Package migrations embeds SQL migration files into the binary.
//
// keygate runs its migrations without the SQL files present on disk; they
// are compiled into the executable and registered with the database package.
package migrations

import (
	"embed"

	"github.com/nerrad567/keygate/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

// FS exposes the embedded migrations for tests that build their own schema.
func FS() embed.FS {
	return migrationsFS
}

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
