package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/desertthunder/songdl/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for searching, playing and downloading songs.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCredentials(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	if err := r.session.Open(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		err := r.session.WatchStorage(ctx, r.config.Storage.Path, func() {
			r.logger.Warn("credential database removed, session ended")
		})
		if err != nil {
			r.logger.Warn("storage watcher stopped", "error", err)
		}
	}()

	model := ui.NewModel(ctx, r.session, r.progress, cmd.String("platform"))
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
