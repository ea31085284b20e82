package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/maestro/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example config to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConfiguration, err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Set credentials.gemini.api_key (or GEMINI_API_KEY) and your Spotify client to get started.\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if _, err := r.database(); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupStatus prints every known migration and whether it was applied.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	db, done, err := r.openUnmigrated()
	if err != nil {
		return err
	}
	defer done()

	states, err := shared.MigrationStatus(db)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	rows := make([][]string, 0, len(states))
	for _, s := range states {
		applied := "pending"
		switch {
		case s.Dirty:
			applied = "dirty"
		case s.Applied:
			applied = "applied"
		}
		rows = append(rows, []string{fmt.Sprintf("%04d", s.Version), s.Name, applied})
	}

	r.writePlain("%s\n", renderTable([]string{"Version", "Name", "Applied"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
	return nil
}

// SetupRollback reverts the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, done, err := r.openUnmigrated()
	if err != nil {
		return err
	}
	defer done()

	switch err := shared.RollbackMigration(db); {
	case errors.Is(err, shared.ErrNoMigrations):
		return r.writePlain("Nothing to roll back\n")
	case err != nil:
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	r.logger.Info("rolled back most recent migration", "path", r.config.Database.Path)
	return r.writePlain("✓ Rolled back the most recent migration\n")
}

// openUnmigrated opens the database without applying pending migrations. done closes it
// unless the runner already owned the connection.
func (r *Runner) openUnmigrated() (db *sql.DB, done func() error, err error) {
	if r.db != nil {
		return r.db, func() error { return nil }, nil
	}
	db, err = r.config.Database.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	return db, db.Close, nil
}
