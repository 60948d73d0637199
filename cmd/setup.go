package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/sortify/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlain("Set %s, %s and %s (or edit the file), then run 'sortify spotify auth'.\n",
		shared.EnvSpotifyClientID, shared.EnvSpotifyClientSecret, shared.EnvModelAPIKey)
	return nil
}

// SetupDatabase initializes the history database and runs migrations.
//
// A missing config file is created from the template first. With --rollback
// the most recent migration is undone afterwards.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		}
	}

	r.logger.Info("initializing database", "path", r.cfg().Database.Path)

	db, err := r.history()
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.logger.Info("rolled back latest migration", "path", r.cfg().Database.Path)
		r.writePlain("✓ Rolled back the latest migration of %s\n", r.cfg().Database.Path)
		return nil
	}

	r.logger.Infof("setup complete for database: %v", r.cfg().Database.Path)
	r.writePlain("✓ History database ready at %s\n", r.cfg().Database.Path)
	return nil
}
