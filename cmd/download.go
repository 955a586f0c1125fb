package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/songdl/internal/formatter"
	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/session"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/desertthunder/songdl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Download saves one or more songs. A single id is a tracked download; several ids
// run as a batch with bounded concurrency and an optional manifest.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one song id is required", shared.ErrMissingArgument)
	}
	if err := r.requireCredentials(); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if dir := cmd.String("output-dir"); dir != "" {
		r.sink.Dir = dir
	}

	if err := r.session.Open(ctx); err != nil {
		return err
	}

	songs := r.resolveSongs(ctx, ids)

	stop := r.printProgress()
	defer stop()

	if len(songs) == 1 {
		st, err := r.session.Download(ctx, songs[0])
		stop()
		if err != nil {
			return err
		}
		r.writePlain("✓ %s → %s\n", songs[0].DisplayName(), st.Location)
		return r.writePlain("%s\n", session.QuotaMessage(r.session.Quota().Snapshot()))
	}

	opts := tasks.BatchOpts{
		Concurrency: r.config.Downloads.Concurrency,
		RateLimit:   r.config.Downloads.RateLimit,
	}
	if c := cmd.Int("concurrency"); c > 0 {
		opts.Concurrency = c
	}

	res, err := r.session.DownloadAll(ctx, songs, opts)
	stop()
	if res == nil {
		return err
	}

	manifest := formatter.NewManifest(res)
	if path := cmd.String("manifest"); path != "" {
		if werr := formatter.WriteManifest(format, manifest, path); werr != nil {
			return errors.Join(err, werr)
		}
		r.logger.Info("manifest written", "path", path)
	}

	data, rerr := formatter.RenderManifest(formatter.Text, manifest)
	if rerr != nil {
		return errors.Join(err, rerr)
	}
	r.writePlainln("%s", string(data))
	r.writePlain("%s\n", session.QuotaMessage(r.session.Quota().Snapshot()))

	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%w: %d of %d downloads failed", shared.ErrAPIRequest, res.Failed, res.Total)
	}
	return nil
}

// resolveSongs looks up metadata for ids. Songs that cannot be looked up keep only
// their id; the download itself reports whether they exist.
func (r *Runner) resolveSongs(ctx context.Context, ids []string) []models.Song {
	songs := make([]models.Song, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		song, err := r.session.Songs().Song(ctx, id)
		if err != nil {
			r.logger.Warn("could not load song metadata", "id", id, "error", err)
			songs = append(songs, models.Song{ID: id})
			continue
		}
		songs = append(songs, *song)
	}
	return songs
}

// printProgress writes tracker updates to the output until the returned stop func is called.
func (r *Runner) printProgress() (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		last := map[string]int{}
		for {
			select {
			case <-done:
				return
			case u := <-r.progress:
				if u.Phase == tasks.InFlight && u.Percent > 0 && u.Percent-last[u.ItemID] < 10 && u.Percent < 100 {
					continue
				}
				last[u.ItemID] = u.Percent
				if u.Phase == tasks.InFlight || u.Step > 0 {
					r.writePlain("%s\n", u.Message)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
