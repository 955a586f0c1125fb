package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/songdl/internal/repositories"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/urfave/cli/v3"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	config.LoadEnv()
	shared.SetLogLevel(logger, shared.ParseLevel(config.Log.Level))

	opts := RunnerOpts{Config: config, ConfigPath: configPath, Logger: logger}

	tokens, db, err := repositories.OpenTokenStore(config.Storage.Path, config.Storage.TokenKey)
	if err != nil {
		logger.Warn("credential store unavailable", "path", config.Storage.Path, "error", err)
	} else {
		defer db.Close()
		opts.Tokens = tokens
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "songdl",
		Usage:    "Search, play and download songs from the songdl service",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Error("application error", "error", err)
		if msg := userMessage(err); msg != "" {
			os.Stderr.WriteString(msg + "\n")
		}
		os.Exit(1)
	}
}
