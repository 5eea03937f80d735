package database

import (
	"embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaVersion describes the migration state of the ledger schema
type SchemaVersion struct {
	Version uint
	Dirty   bool
	Applied bool
}

// schemaMigrator applies the embedded ledger migrations
type schemaMigrator struct {
	m *migrate.Migrate
}

func openMigrator(databaseURL string) (*schemaMigrator, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	driver, err := postgres.WithInstance(stdlib.OpenDB(*config.ConnConfig), &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare ledger migrations: %w", err)
	}
	return &schemaMigrator{m: m}, nil
}

func (s *schemaMigrator) close() {
	if srcErr, dbErr := s.m.Close(); srcErr != nil || dbErr != nil {
		log.WithFields(log.Fields{"source": srcErr, "database": dbErr}).Warn("Failed to close migrator")
	}
}

// up reports whether any migration was applied
func (s *schemaMigrator) up() (bool, error) {
	err := s.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	return err == nil, err
}

func (s *schemaMigrator) version() (SchemaVersion, error) {
	version, dirty, err := s.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, nil
	}
	if err != nil {
		return SchemaVersion{}, err
	}
	return SchemaVersion{Version: version, Dirty: dirty, Applied: true}, nil
}

// MigrateUp brings the ledger schema to the latest version
func MigrateUp(databaseURL string) error {
	s, err := openMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer s.close()

	applied, err := s.up()
	if err != nil {
		return fmt.Errorf("failed to migrate ledger schema: %w", err)
	}

	v, _ := s.version()
	if !applied {
		log.WithField("version", v.Version).Info("Ledger schema already up to date")
		return nil
	}
	log.WithField("version", v.Version).Info("Ledger schema migrated")
	return nil
}

// MigrateDown reverts the given number of ledger migrations
func MigrateDown(databaseURL, stepsStr string) error {
	steps, err := strconv.Atoi(stepsStr)
	if err != nil {
		return fmt.Errorf("invalid steps value %q: %w", stepsStr, err)
	}
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", steps)
	}

	s, err := openMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Ledger schema has nothing to revert")
			return nil
		}
		return fmt.Errorf("failed to revert %d ledger migration(s): %w", steps, err)
	}

	v, err := s.version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if !v.Applied {
		log.Info("Ledger schema fully reverted")
		return nil
	}
	log.WithFields(log.Fields{"version": v.Version, "reverted": steps}).Info("Ledger schema reverted")
	return nil
}

// SchemaStatus returns the current version of the ledger schema
func SchemaStatus(databaseURL string) (SchemaVersion, error) {
	s, err := openMigrator(databaseURL)
	if err != nil {
		return SchemaVersion{}, err
	}
	defer s.close()

	v, err := s.version()
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// MigrateStatus logs the current version of the ledger schema
func MigrateStatus(databaseURL string) error {
	v, err := SchemaStatus(databaseURL)
	if err != nil {
		return err
	}
	if !v.Applied {
		log.Info("Ledger schema has no migrations applied")
		return nil
	}
	log.WithFields(log.Fields{"version": v.Version, "dirty": v.Dirty}).Info("Ledger schema version")
	return nil
}

// RunMigrationsWithURL applies pending migrations without logging, for test containers
func RunMigrationsWithURL(databaseURL string) error {
	s, err := openMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer s.close()

	if _, err := s.up(); err != nil {
		return fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	return nil
}
