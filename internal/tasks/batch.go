package tasks

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BatchOpts contains configuration for batch downloads.
type BatchOpts struct {
	Concurrency int     // Concurrent transfers (default: 3, max: 10)
	RateLimit   float64 // Transfer starts per second (default: 2)
}

// JobResult is the outcome of one job in a batch.
type JobResult struct {
	Job      Job
	Location string
	Skipped  bool // already in flight
	Err      error
}

// BatchResult summarizes a batch.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Results   []JobResult // in job order
}

// StartAll runs jobs concurrently through [Tracker.Run] with bounded concurrency and
// paced starts. Individual failures do not stop the batch. The returned error is only
// set when ctx ended before every job started.
func (t *Tracker) StartAll(ctx context.Context, jobs []Job, opts BatchOpts) (*BatchResult, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.Concurrency > 10 {
		opts.Concurrency = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	results := make([]JobResult, len(jobs))
	done := make(chan JobResult)
	var (
		notStarted int
		waitErr    error
	)

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	go func() {
		defer close(done)
		for i, job := range jobs {
			if err := limiter.Wait(ctx); err != nil {
				notStarted, waitErr = len(jobs)-i, err
				for j := i; j < len(jobs); j++ {
					results[j] = JobResult{Job: jobs[j], Err: fmt.Errorf("%s: not started: %w", jobs[j].ItemID, err)}
				}
				break
			}

			g.Go(func() error {
				err := t.Run(ctx, job)
				res := JobResult{Job: job, Err: err}
				switch {
				case errors.Is(err, ErrAlreadyInFlight):
					res.Skipped = true
					res.Err = nil
				case err == nil:
					res.Location = t.ProgressOf(job.ItemID).Location
				}
				results[i] = res
				done <- res
				return nil
			})
		}
		g.Wait()
	}()

	step := 0
	for res := range done {
		step++
		sendProgress(t.progress, batchUpdate(step, len(jobs), res))
	}

	out := &BatchResult{Total: len(jobs), Results: results}
	for _, res := range results {
		switch {
		case res.Skipped:
			out.Skipped++
		case res.Err != nil:
			out.Failed++
		default:
			out.Succeeded++
		}
	}

	if notStarted > 0 {
		return out, fmt.Errorf("%d of %d downloads not started: %w", notStarted, len(jobs), waitErr)
	}
	return out, nil
}
