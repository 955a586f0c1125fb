package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/songdl/internal/formatter"
	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/session"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// SongsSearch searches the catalogue and renders the results.
func (r *Runner) SongsSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.logger.Info("searching songs", "query", query, "platform", cmd.String("platform"))

	songs, err := r.session.Songs().Search(ctx, query, cmd.String("platform"))
	if err != nil {
		return err
	}

	data, err := formatter.RenderSongs(format, fmt.Sprintf("Results for %q", query), songs)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		return r.writePlain("✓ %d songs written to %s\n", len(songs), path)
	}

	if len(songs) == 0 {
		return r.writePlain("No songs found\n")
	}
	_, err = r.output.Write(data)
	return err
}

// SongsShow renders a single song.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	song, err := r.session.Songs().Song(ctx, id)
	if err != nil {
		return err
	}

	if format == formatter.JSON {
		return r.writeJSON(song, true)
	}

	data, err := formatter.RenderSongs(format, song.DisplayName(), []models.Song{*song})
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// Quota loads and prints the authoritative quota.
func (r *Runner) Quota(ctx context.Context, cmd *cli.Command) error {
	if !r.session.Capabilities().SignedIn {
		r.writePlain("Not signed in. Free accounts get %d downloads a day.\n", r.session.Quota().Ceiling(models.Free))
		return nil
	}

	if err := r.session.RefreshQuota(ctx); err != nil {
		return err
	}

	snap := r.session.Quota().Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(snap, false)
	}

	r.writePlain("Tier: %s\n", snap.Tier)
	return r.writePlain("%s\n", session.QuotaMessage(snap))
}

// Play selects a song in the playback session and opens the player widget for it.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}

	song, err := r.session.Songs().Song(ctx, id)
	if err != nil {
		return err
	}

	playback := r.session.Playback()
	playback.Select(*song)

	widgetURL, ok := playback.WidgetURL()
	if !ok {
		playback.Close()
		return fmt.Errorf("%w: %s cannot be embedded", shared.ErrInvalidInput, song.DisplayName())
	}

	r.writePlain("▶ %s [%s]\n", song.DisplayName(), song.DurationString())
	if cmd.Bool("no-browser") {
		return r.writePlain("%s\n", widgetURL)
	}

	if err := shared.OpenBrowser(widgetURL); err != nil {
		playback.WidgetFailed(err)
		r.logger.Warnf("failed to open browser automatically %v", err)
		return r.writePlain("Open this URL in your browser:\n%s\n", widgetURL)
	}
	playback.WidgetLoaded()
	return nil
}
