package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/songdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file when missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	config.ApplyEnv()

	r.logger.Info("initializing database", "path", config.Storage.Path)

	db, err := shared.NewDatabase(config.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, 1, 1)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Config: %s\n", configPath)
	r.writePlain("Database: %s\n", config.Storage.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set service.base_url in %s (currently %s)\n", configPath, config.ResolveBaseURL())
	r.writePlain("2. Run 'songdl auth login' to sign in\n")
	return nil
}
