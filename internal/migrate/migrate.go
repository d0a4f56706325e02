// Package migrate applies the schema with darwin. Each dialect keeps its own
// ordered migration list; applied versions are tracked in darwin_migrations
// and must never be edited once released.
package migrate

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/GuiaBolso/darwin"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Postgres migrates the database at dsn. It opens its own database/sql
// handle because the application pool prepares statements against the
// migrated tables on connect.
func Postgres(dsn string, logger *slog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()
	return run(db, darwin.PostgresDialect{}, postgresMigrations, logger)
}

// SQLite migrates an open SQLite handle.
func SQLite(db *sql.DB, logger *slog.Logger) error {
	return run(db, darwin.SqliteDialect{}, sqliteMigrations, logger)
}

func run(db *sql.DB, dialect darwin.Dialect, migrations []darwin.Migration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	info := make(chan darwin.MigrationInfo, len(migrations))
	driver := darwin.NewGenericDriver(db, dialect)
	if err := darwin.New(driver, migrations, info).Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	close(info)

	applied := 0
	for mi := range info {
		if mi.Status == darwin.Applied {
			applied++
			logger.Debug("Migration applied",
				"version", mi.Migration.Version, "description", mi.Migration.Description)
		}
	}
	logger.Info("Schema migrated", "applied", applied, "known", len(migrations))
	return nil
}
