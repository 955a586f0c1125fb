package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/services"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/google/uuid"
)

var (
	// ErrAlreadyInFlight rejects a start for an item that already has a running transfer.
	// It signals a caller bug (the control should have been disabled), not a user-facing failure.
	ErrAlreadyInFlight = errors.New("transfer already in flight")

	// ErrAbandoned is returned to the starter of a transfer whose item was abandoned
	// before it finished. The transfer's result was dropped.
	ErrAbandoned = errors.New("transfer abandoned")
)

// TransferState is the observable state of one item.
type TransferState struct {
	ItemID    string
	Phase     Phase
	Progress  int    // 0-100, never decreases while InFlight
	Message   string // last user-readable message
	Location  string // where the sink stored the body, after success
	Err       error  // last failure
	UpdatedAt time.Time
}

// Job is a single download request.
type Job struct {
	ItemID  string
	Song    models.Song
	Request services.RequestDescriptor
}

// Sink stores a successfully received body and returns its location.
type Sink interface {
	Save(ctx context.Context, job Job, resp *services.Response) (string, error)
}

// QuotaNotifier is told about every confirmed successful transfer.
type QuotaNotifier interface {
	DecrementOnSuccess()
}

// TrackerOpts configures a [Tracker]. Only Gateway is required.
type TrackerOpts struct {
	Gateway  services.Sender
	Sink     Sink
	Quota    QuotaNotifier
	Progress chan<- ProgressUpdate
	Logger   *log.Logger
}

type entry struct {
	state TransferState
	gen   string
}

// Tracker tracks per-item transfers and allows at most one in-flight transfer per item.
//
// Every start gets a generation id. Events from a generation that is no longer current
// (the item was abandoned, or abandoned and started again) are dropped.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry

	gw       services.Sender
	sink     Sink
	quota    QuotaNotifier
	progress chan<- ProgressUpdate
	logger   *log.Logger
}

// NewTracker creates a Tracker.
func NewTracker(opts TrackerOpts) *Tracker {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Tracker{
		entries:  make(map[string]*entry),
		gw:       opts.Gateway,
		sink:     opts.Sink,
		quota:    opts.Quota,
		progress: opts.Progress,
		logger:   logger,
	}
}

// Start downloads itemID with d and blocks until the transfer ends.
//
// It returns [ErrAlreadyInFlight] immediately when itemID is in flight. Failures leave the
// item in [Failed] with its last progress and can be retried by calling Start again.
func (t *Tracker) Start(ctx context.Context, itemID string, d services.RequestDescriptor) error {
	return t.Run(ctx, Job{ItemID: itemID, Request: d})
}

// Run is [Tracker.Start] for a job carrying song metadata for the sink.
func (t *Tracker) Run(ctx context.Context, job Job) error {
	gen, err := t.begin(job.ItemID)
	if err != nil {
		return err
	}

	desc := job.Request
	onProgress := desc.OnProgress
	desc.OnProgress = func(p int) {
		t.advance(job.ItemID, gen, p)
		if onProgress != nil {
			onProgress(p)
		}
	}

	resp, err := t.gw.Send(ctx, desc)
	if err == nil && t.sink != nil {
		if !t.current(job.ItemID, gen) {
			return fmt.Errorf("%s: %w", job.ItemID, ErrAbandoned)
		}
		var location string
		location, err = t.sink.Save(ctx, job, resp)
		if err == nil {
			t.setLocation(job.ItemID, gen, location)
		}
	}

	return t.finish(job.ItemID, gen, err)
}

// begin is the single-flight check-and-set.
func (t *Tracker) begin(itemID string) (string, error) {
	if strings.TrimSpace(itemID) == "" {
		return "", fmt.Errorf("%w: empty item id", shared.ErrInvalidInput)
	}

	t.mu.Lock()
	if e, ok := t.entries[itemID]; ok && e.state.Phase == InFlight {
		t.mu.Unlock()
		return "", fmt.Errorf("%s: %w", itemID, ErrAlreadyInFlight)
	}

	gen := uuid.NewString()
	t.entries[itemID] = &entry{
		gen:   gen,
		state: TransferState{ItemID: itemID, Phase: InFlight, UpdatedAt: time.Now()},
	}
	t.mu.Unlock()

	t.logger.Debug("transfer started", "item", itemID, "generation", gen)
	sendProgress(t.progress, startedUpdate(itemID))
	return gen, nil
}

// advance applies a progress event. Lower values than already seen are ignored.
func (t *Tracker) advance(itemID, gen string, percent int) {
	percent = min(max(percent, 0), 100)

	t.mu.Lock()
	e, ok := t.entries[itemID]
	if !ok || e.gen != gen || e.state.Phase != InFlight || percent <= e.state.Progress {
		t.mu.Unlock()
		return
	}
	e.state.Progress = percent
	e.state.UpdatedAt = time.Now()
	t.mu.Unlock()

	sendProgress(t.progress, percentUpdate(itemID, percent))
}

func (t *Tracker) current(itemID, gen string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[itemID]
	return ok && e.gen == gen
}

func (t *Tracker) setLocation(itemID, gen, location string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[itemID]; ok && e.gen == gen {
		e.state.Location = location
	}
}

// finish records the outcome. The quota notifier is only called for a current,
// confirmed success.
func (t *Tracker) finish(itemID, gen string, err error) error {
	t.mu.Lock()
	e, ok := t.entries[itemID]
	if !ok || e.gen != gen {
		t.mu.Unlock()
		t.logger.Debug("dropping result of abandoned transfer", "item", itemID, "generation", gen)
		return fmt.Errorf("%s: %w", itemID, ErrAbandoned)
	}

	e.state.UpdatedAt = time.Now()
	if err != nil {
		e.state.Phase = Failed
		e.state.Err = err
		e.state.Message = services.UserMessage(err)
		st := e.state
		t.mu.Unlock()

		t.logger.Warn("transfer failed", "item", itemID, "progress", st.Progress, "error", err)
		sendProgress(t.progress, failedUpdate(st))
		return fmt.Errorf("%s: %w", itemID, err)
	}

	e.state.Phase = Succeeded
	e.state.Progress = 100
	e.state.Err = nil
	e.state.Message = "Downloaded"
	st := e.state
	t.mu.Unlock()

	if t.quota != nil {
		t.quota.DecrementOnSuccess()
	}
	t.logger.Info("transfer finished", "item", itemID, "location", st.Location)
	sendProgress(t.progress, succeededUpdate(st))
	return nil
}

// ProgressOf returns the state of itemID. Unknown items are [Idle].
func (t *Tracker) ProgressOf(itemID string) TransferState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[itemID]; ok {
		return e.state
	}
	return TransferState{ItemID: itemID, Phase: Idle}
}

// Abandon drops interest in itemID. Its state is removed; if a transfer is running,
// its late progress and completion events are ignored. The network call itself is not
// cancelled. Reports whether a transfer was in flight.
func (t *Tracker) Abandon(itemID string) bool {
	t.mu.Lock()
	e, ok := t.entries[itemID]
	delete(t.entries, itemID)
	t.mu.Unlock()

	inFlight := ok && e.state.Phase == InFlight
	if inFlight {
		t.logger.Debug("transfer abandoned", "item", itemID, "progress", e.state.Progress)
	}
	return inFlight
}

// AbandonAll abandons every item, used at session teardown.
func (t *Tracker) AbandonAll() {
	t.mu.Lock()
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	for _, id := range ids {
		t.Abandon(id)
	}
}

// States returns every known state ordered by item id.
func (t *Tracker) States() []TransferState {
	t.mu.Lock()
	out := make([]TransferState, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.state)
	}
	t.mu.Unlock()

	slices.SortFunc(out, func(a, b TransferState) int { return strings.Compare(a.ItemID, b.ItemID) })
	return out
}

// InFlight reports whether itemID has a running transfer.
func (t *Tracker) InFlight(itemID string) bool {
	return t.ProgressOf(itemID).Phase == InFlight
}
