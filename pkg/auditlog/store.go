// Package auditlog keeps an append-only trail of msgr2/CephX handshake
// attempts in a SQL database, grounded on the teacher's
// pkg/controlplane/store.GORMStore: a dialect-selectable gorm.DB wrapper
// that runs schema setup on Open and exposes small typed methods rather
// than a raw *gorm.DB to callers.
package auditlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dialect selects the SQL backend a Store talks to.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config configures a Store. DSN is the sqlite file path or the
// postgres connection string, depending on Dialect.
type Config struct {
	Dialect Dialect
	DSN     string
}

func (c *Config) applyDefaults() {
	if c.Dialect == "" {
		c.Dialect = DialectSQLite
	}
}

func (c *Config) validate() error {
	if c.DSN == "" {
		return fmt.Errorf("auditlog: dsn is required")
	}
	switch c.Dialect {
	case DialectSQLite, DialectPostgres:
		return nil
	default:
		return fmt.Errorf("auditlog: unsupported dialect %q", c.Dialect)
	}
}

// Store records and queries handshake attempts.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and ensures the
// handshake_attempts table exists (via gorm AutoMigrate — the same
// migration path the teacher's GORMStore.New uses for both dialects;
// RunPostgresMigrations offers the golang-migrate path for deployments
// that want versioned migrations instead).
func Open(cfg Config) (*Store, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch cfg.Dialect {
	case DialectSQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("auditlog: create database directory: %w", err)
			}
		}
		dsn := cfg.DSN + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)
	case DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("auditlog: connect: %w", err)
	}

	if err := db.AutoMigrate(&HandshakeAttempt{}); err != nil {
		return nil, fmt.Errorf("auditlog: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying gorm connection, for advanced queries or
// tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record inserts a completed handshake attempt.
func (s *Store) Record(ctx context.Context, attempt *HandshakeAttempt) error {
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now()
	}
	if attempt.CompletedAt.IsZero() {
		attempt.CompletedAt = time.Now()
	}
	attempt.DurationMillis = attempt.CompletedAt.Sub(attempt.StartedAt).Milliseconds()

	return s.db.WithContext(ctx).Create(attempt).Error
}

// Recent returns the most recent attempts, newest first, capped at
// limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]HandshakeAttempt, error) {
	var attempts []HandshakeAttempt
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("auditlog: query recent attempts: %w", err)
	}
	return attempts, nil
}

// FailureRate reports the fraction of the last `window` attempts that
// failed, for a given peer. Returns 0 with no error if there are no
// attempts recorded yet.
func (s *Store) FailureRate(ctx context.Context, peerAddr string, window int) (float64, error) {
	var attempts []HandshakeAttempt
	err := s.db.WithContext(ctx).
		Where("peer_addr = ?", peerAddr).
		Order("started_at DESC").
		Limit(window).
		Find(&attempts).Error
	if err != nil {
		return 0, fmt.Errorf("auditlog: query failure rate: %w", err)
	}
	if len(attempts) == 0 {
		return 0, nil
	}

	failures := 0
	for _, a := range attempts {
		if a.Outcome == OutcomeFailure {
			failures++
		}
	}
	return float64(failures) / float64(len(attempts)), nil
}
