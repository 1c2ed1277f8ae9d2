package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/desertthunder/spotx/internal/repositories"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the configuration template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if cmd.Bool("force") {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	return r.writePlainln("Set credentials.spotify.client_id and client_secret, or export SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET.")
}

// SetupDatabase initializes the credential database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("rollback") {
		return r.rollbackDatabase()
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenCredentialDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	ids, err := repositories.NewCredentialRepository(db).List(ctx)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
	return r.writePlain("Stored credentials: %d\n", len(ids))
}

// rollbackDatabase reverts the newest schema migration without applying pending ones first.
func (r *Runner) rollbackDatabase() error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	mig, err := shared.RollbackMigration(db)
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	r.logger.Info("rolled back migration", "path", r.config.Database.Path, "version", mig.Version, "name", mig.Name)
	return r.writePlain("✓ Rolled back migration %04d_%s\n", mig.Version, mig.Name)
}
