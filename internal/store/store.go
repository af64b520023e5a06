// Package store opens the database backend named by configuration.
package store

import (
	"context"
	"fmt"

	"github.com/msomdec/associates/internal/config"
	"github.com/msomdec/associates/internal/domain"
	"github.com/msomdec/associates/internal/repository/postgres"
	"github.com/msomdec/associates/internal/repository/sqlite"
)

// Open opens the backend selected by cfg.Driver and applies its migrations.
// It has the shape of connection.OpenFunc.
func Open(ctx context.Context, cfg *config.Config) (domain.Database, error) {
	var (
		db  domain.Database
		err error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err = postgres.Open(ctx, cfg)
	case config.DriverSQLite:
		db, err = sqlite.New(cfg.DBName)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", domain.ErrConfiguration, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate %s: %w", domain.ErrStatement, cfg.Driver, err)
	}
	return db, nil
}
