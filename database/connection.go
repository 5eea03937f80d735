package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const (
	applicationName = "fintrack"

	// The scanner holds one connection per schedule it executes; the API shares the rest
	maxPoolConns      = 10
	maxConnIdleTime   = 5 * time.Minute
	healthCheckPeriod = 30 * time.Second
)

// DB is the ledger database, a pgx pool whose sessions run in UTC
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens the pool and verifies the server is reachable
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// DATE columns are read back as midnight UTC, matching entities.NewDate
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"
	config.ConnConfig.RuntimeParams["application_name"] = applicationName
	if config.MaxConns > maxPoolConns {
		config.MaxConns = maxPoolConns
	}
	config.MaxConnIdleTime = maxConnIdleTime
	config.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger database unreachable: %w", err)
	}

	log.WithFields(log.Fields{
		"host":      config.ConnConfig.Host,
		"database":  config.ConnConfig.Database,
		"max_conns": config.MaxConns,
	}).Debug("Ledger database pool ready")

	return &DB{Pool: pool}, nil
}

// Ready reports whether the database is reachable and the schedule schema has been migrated
func (db *DB) Ready(ctx context.Context) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("ledger database unreachable: %w", err)
	}

	var migrated bool
	if err := db.QueryRow(ctx, `SELECT to_regclass('public.recurring_schedules') IS NOT NULL`).Scan(&migrated); err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	if !migrated {
		return fmt.Errorf("schema not migrated: run `fintrack migrate up`")
	}
	return nil
}

// Close releases every pooled connection
func (db *DB) Close() {
	db.Pool.Close()
}
