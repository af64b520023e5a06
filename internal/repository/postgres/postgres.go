// Package postgres persists records in PostgreSQL through a pgx connection
// pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/tracelog"

	"github.com/msomdec/associates/internal/config"
	"github.com/msomdec/associates/internal/domain"
)

// PingTimeout bounds the startup ping so Open fails fast when the server is
// unreachable.
const PingTimeout = 10 * time.Second

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store is the PostgreSQL implementation of domain.Database.
type Store struct {
	Pool *pgxpool.Pool

	associates *Repository[domain.Associate]
}

var _ domain.Database = (*Store)(nil)

// Open creates a connection pool from cfg.ConnectionString and pings it.
// With cfg.LogSQL every query is logged through slog at debug level.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse pgx pool config: %w", err)
	}

	if cfg.LogSQL {
		poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   slogLogger(slog.Default()),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Redacted(), err)
	}

	slog.Info("connected to postgres", "dsn", cfg.Redacted())
	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Pool:       pool,
		associates: NewAssociateRepository(pool),
	}
}

// Migrate applies the embedded migrations with golang-migrate.
func (s *Store) Migrate(ctx context.Context) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	// golang-migrate speaks database/sql; borrow connections from the pool.
	sqlDB := stdlib.OpenDBFromPool(s.Pool)
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("migrate instance: %w", err)
	}
	// Closing the migrator closes the driver and sqlDB; the pool stays open.
	defer m.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration %d left the schema dirty", version)
	}
	slog.Info("database schema up to date", "version", version)
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.Pool.Close()
	return nil
}

// Associates returns the associate repository bound to this store.
func (s *Store) Associates() domain.AssociateRepository {
	return s.associates
}
