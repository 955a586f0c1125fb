package tasks

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/services"
)

func jobsFor(ids ...string) []Job {
	jobs := make([]Job, 0, len(ids))
	for _, id := range ids {
		song := models.Song{ID: id, Title: "Title " + id, Artist: "Artist"}
		jobs = append(jobs, Job{ItemID: id, Song: song, Request: services.DownloadRequest(song)})
	}
	return jobs
}

func TestStartAll(t *testing.T) {
	t.Run("Mixed Results", func(t *testing.T) {
		gw := &fakeGateway{send: func(ctx context.Context, d services.RequestDescriptor) (*services.Response, error) {
			if strings.Contains(d.Path, "/bad/") {
				return nil, &services.ServiceError{Status: 404}
			}
			return &services.Response{Status: 200}, nil
		}}
		quota := &fakeQuota{}
		progress := make(chan ProgressUpdate, 64)
		tr := NewTracker(TrackerOpts{Gateway: gw, Quota: quota, Sink: &recordingSink{}, Progress: progress, Logger: log.New(io.Discard)})

		res, err := tr.StartAll(context.Background(), jobsFor("a", "bad", "c", "d"), BatchOpts{Concurrency: 2, RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if res.Total != 4 || res.Succeeded != 3 || res.Failed != 1 || res.Skipped != 0 {
			t.Errorf("unexpected summary %+v", res)
		}
		if res.Results[1].Job.ItemID != "bad" || !errors.Is(res.Results[1].Err, services.ErrService) {
			t.Errorf("expected results in job order, got %+v", res.Results[1])
		}
		if res.Results[0].Location != "/tmp/a" {
			t.Errorf("expected location from sink, got %q", res.Results[0].Location)
		}
		if quota.n.Load() != 3 {
			t.Errorf("expected 3 decrements, got %d", quota.n.Load())
		}

		close(progress)
		var last ProgressUpdate
		for u := range progress {
			if u.Total > 0 {
				last = u
			}
		}
		if last.Step != 4 || last.Total != 4 {
			t.Errorf("expected final batch update 4/4, got %+v", last)
		}
	})

	t.Run("Concurrency Limit", func(t *testing.T) {
		var active, peak atomic.Int32
		gw := &fakeGateway{send: func(ctx context.Context, d services.RequestDescriptor) (*services.Response, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return &services.Response{Status: 200}, nil
		}}
		tr := newTestTracker(gw, nil, nil)

		res, err := tr.StartAll(context.Background(), jobsFor("1", "2", "3", "4", "5", "6"), BatchOpts{Concurrency: 2, RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Succeeded != 6 {
			t.Errorf("expected 6 successes, got %d", res.Succeeded)
		}
		if peak.Load() > 2 {
			t.Errorf("expected at most 2 concurrent transfers, got %d", peak.Load())
		}
	})

	t.Run("Duplicate Items Are Skipped", func(t *testing.T) {
		gw, entered, release := blockingGateway()
		tr := newTestTracker(gw, nil, nil)

		done := make(chan *BatchResult, 1)
		go func() {
			res, _ := tr.StartAll(context.Background(), jobsFor("a", "a"), BatchOpts{Concurrency: 2, RateLimit: 1000})
			done <- res
		}()

		<-entered
		time.Sleep(50 * time.Millisecond)
		close(release)

		res := <-done
		if res.Succeeded != 1 || res.Skipped != 1 {
			t.Errorf("expected one success and one skip, got %+v", res)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tr := newTestTracker(&fakeGateway{}, nil, nil)
		res, err := tr.StartAll(ctx, jobsFor("a", "b"), BatchOpts{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if res.Failed != 2 || res.Succeeded != 0 {
			t.Errorf("expected both jobs unstarted, got %+v", res)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		tr := newTestTracker(&fakeGateway{}, nil, nil)
		res, err := tr.StartAll(context.Background(), nil, BatchOpts{})
		if err != nil || res.Total != 0 {
			t.Errorf("expected empty result, got %+v, %v", res, err)
		}
	})
}
