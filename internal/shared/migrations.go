package shared

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// ErrNoMigrations is returned by [RollbackMigration] on an empty schema.
var ErrNoMigrations = errors.New("no migrations to rollback")

// MigrationState reports whether an embedded migration has been applied.
type MigrationState struct {
	Version uint
	Name    string
	Applied bool
	// Dirty marks the current version when its last run failed halfway.
	Dirty bool
}

func migrationSource() (source.Driver, error) {
	src, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	return src, nil
}

// newMigrator wraps db for golang-migrate. The result is never closed: closing it closes db,
// which belongs to the caller.
func newMigrator(db *sql.DB, src source.Driver) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func openMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := migrationSource()
	if err != nil {
		return nil, err
	}
	return newMigrator(db, src)
}

// RunMigrations applies every pending migration in version order.
func RunMigrations(db *sql.DB) error {
	m, err := openMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run up migrations: %w", err)
	}
	return nil
}

// RollbackMigration reverts the newest applied migration.
func RollbackMigration(db *sql.DB) error {
	m, err := openMigrator(db)
	if err != nil {
		return err
	}

	switch _, _, err := m.Version(); {
	case errors.Is(err, migrate.ErrNilVersion):
		return ErrNoMigrations
	case err != nil:
		return fmt.Errorf("failed to get version: %w", err)
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// MigrationStatus lists every embedded migration against the recorded schema version.
func MigrationStatus(db *sql.DB) ([]MigrationState, error) {
	src, err := migrationSource()
	if err != nil {
		return nil, err
	}
	m, err := newMigrator(db, src)
	if err != nil {
		return nil, err
	}

	current, dirty, err := m.Version()
	recorded := err == nil
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	var states []MigrationState
	version, err := src.First()
	for err == nil {
		r, name, rerr := src.ReadUp(version)
		if rerr != nil {
			return nil, fmt.Errorf("failed to read migration %d: %w", version, rerr)
		}
		r.Close()

		states = append(states, MigrationState{
			Version: version,
			Name:    name,
			Applied: recorded && version <= current,
			Dirty:   dirty && version == current,
		})
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	return states, nil
}
