package auditlog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/marmos91/cephmsgr/internal/logger"
	"github.com/marmos91/cephmsgr/pkg/auditlog/migrations"
)

// RunPostgresMigrations applies pkg/auditlog's versioned schema
// migrations against a postgres database, the golang-migrate path the
// teacher's pkg/store/metadata/postgres.RunMigrations uses for
// deployments that manage schema changes outside gorm's AutoMigrate.
func RunPostgresMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("auditlog: open postgres connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("auditlog: ping postgres: %w", err)
	}

	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{
		MigrationsTable: "auditlog_schema_migrations",
		DatabaseName:    "cephctl_audit",
	})
	if err != nil {
		return fmt.Errorf("auditlog: create postgres migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("auditlog: create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("auditlog: create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("auditlog: apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("auditlog: read migration version: %w", err)
	}
	if dirty {
		logger.Warn("auditlog schema is in a dirty migration state", "version", version)
	}
	return nil
}
