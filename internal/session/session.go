package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/services"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/desertthunder/songdl/internal/tasks"
)

// CredentialStore holds the opaque session credential.
type CredentialStore interface {
	Get() (string, bool, error)
	Set(credential string) error
	Clear() error
}

// Capabilities are passed to UI components that gate actions on the session.
type Capabilities struct {
	SignedIn    bool
	CanDownload bool
}

// Deps are the collaborators of a [Session].
type Deps struct {
	Config   *shared.Config
	Tokens   CredentialStore
	Gateway  services.Sender
	Sink     tasks.Sink
	Progress chan<- tasks.ProgressUpdate
	Logger   *log.Logger
}

// Session owns the process-wide client state: credential, quota, transfers and playback.
//
// It is created once, initialized with [Session.Open] and torn down with [Session.SignOut].
type Session struct {
	cfg      *shared.Config
	tokens   CredentialStore
	songs    *services.SongService
	quota    *QuotaModel
	playback *Playback
	tracker  *tasks.Tracker
	logger   *log.Logger

	mu      sync.Mutex
	profile *models.Profile
}

// New wires a session. The tracker reports successes to the session's quota model.
func New(d Deps) *Session {
	cfg := d.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}

	quota := NewQuotaModel(cfg.Quota)
	return &Session{
		cfg:      cfg,
		tokens:   d.Tokens,
		songs:    services.NewSongService(d.Gateway),
		quota:    quota,
		playback: NewPlayback(cfg.Player),
		tracker: tasks.NewTracker(tasks.TrackerOpts{
			Gateway:  d.Gateway,
			Sink:     d.Sink,
			Quota:    quota,
			Progress: d.Progress,
			Logger:   shared.WithLogger(logger, "component", "tracker"),
		}),
		logger: logger,
	}
}

func (s *Session) Quota() *QuotaModel           { return s.quota }
func (s *Session) Playback() *Playback          { return s.playback }
func (s *Session) Tracker() *tasks.Tracker      { return s.tracker }
func (s *Session) Songs() *services.SongService { return s.songs }

// Open initializes the session. When signed in the quota is loaded from the backend;
// a failed load keeps the preview and is only logged.
func (s *Session) Open(ctx context.Context) error {
	signedIn, err := s.signedIn()
	if err != nil {
		return err
	}
	if !signedIn {
		return nil
	}

	if err := s.RefreshQuota(ctx); err != nil {
		s.logger.Warn("could not load quota", "error", err)
	}
	return nil
}

// SignIn stores credential and loads the account's quota.
func (s *Session) SignIn(ctx context.Context, credential string) error {
	if err := s.tokens.Set(credential); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	s.logger.Info("signed in")

	if err := s.RefreshQuota(ctx); err != nil {
		s.logger.Warn("could not load quota", "error", err)
	}
	return nil
}

// SignOut tears the session down: in-flight transfers are abandoned, playback is
// closed, the quota returns to its preview and the credential is removed.
func (s *Session) SignOut() error {
	s.Teardown()
	if err := s.tokens.Clear(); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	s.logger.Info("signed out")
	return nil
}

// Teardown resets in-memory state without touching storage. Used when the
// credential store disappears underneath the session.
func (s *Session) Teardown() {
	s.tracker.AbandonAll()
	s.playback.Close()
	s.quota.Reset()

	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()
}

// Capabilities reports what the current user may attempt.
func (s *Session) Capabilities() Capabilities {
	signedIn, err := s.signedIn()
	if err != nil {
		s.logger.Warn("could not read credential", "error", err)
	}
	return Capabilities{SignedIn: signedIn, CanDownload: signedIn && !s.quota.Exhausted()}
}

// Download runs a tracked download for song, then reloads the quota from the backend
// so the optimistic decrement is replaced by the authoritative value.
func (s *Session) Download(ctx context.Context, song models.Song) (tasks.TransferState, error) {
	if err := s.canStart(); err != nil {
		return s.tracker.ProgressOf(song.ID), err
	}

	err := s.tracker.Run(ctx, tasks.Job{ItemID: song.ID, Song: song, Request: services.DownloadRequest(song)})
	switch {
	case err == nil:
		s.refreshAfterTransfer(ctx)
	case isQuotaRejection(err):
		s.refreshAfterTransfer(ctx)
	}
	return s.tracker.ProgressOf(song.ID), err
}

// DownloadAll runs a batch download followed by one authoritative quota refresh.
func (s *Session) DownloadAll(ctx context.Context, songs []models.Song, opts tasks.BatchOpts) (*tasks.BatchResult, error) {
	if err := s.canStart(); err != nil {
		return nil, err
	}

	jobs := make([]tasks.Job, 0, len(songs))
	for _, song := range songs {
		jobs = append(jobs, tasks.Job{ItemID: song.ID, Song: song, Request: services.DownloadRequest(song)})
	}

	res, err := s.tracker.StartAll(ctx, jobs, opts)
	if res != nil && res.Succeeded > 0 {
		s.refreshAfterTransfer(ctx)
	}
	return res, err
}

// RefreshQuota loads the authoritative quota.
func (s *Session) RefreshQuota(ctx context.Context) error {
	q, err := s.songs.Quota(ctx)
	if err != nil {
		return err
	}
	s.quota.Apply(*q)
	return nil
}

// Profile returns the signed-in account, cached after the first call.
func (s *Session) Profile(ctx context.Context) (*models.Profile, error) {
	s.mu.Lock()
	if s.profile != nil {
		p := *s.profile
		s.mu.Unlock()
		return &p, nil
	}
	s.mu.Unlock()

	p, err := s.songs.Me(ctx)
	if err != nil {
		var se *services.ServiceError
		if errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
		}
		return nil, err
	}

	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	return p, nil
}

func (s *Session) signedIn() (bool, error) {
	if s.tokens == nil {
		return false, nil
	}
	_, ok, err := s.tokens.Get()
	return ok, err
}

// canStart is the pre-emptive check behind a disabled download control.
func (s *Session) canStart() error {
	c := s.Capabilities()
	switch {
	case !c.SignedIn:
		return fmt.Errorf("%w: sign in to download", shared.ErrNotAuthenticated)
	case !c.CanDownload:
		return fmt.Errorf("%w: %s", shared.ErrQuotaExhausted, s.quota.Message())
	}
	return nil
}

func (s *Session) refreshAfterTransfer(ctx context.Context) {
	if err := s.RefreshQuota(context.WithoutCancel(ctx)); err != nil {
		s.logger.Debug("quota refresh after transfer failed, keeping local value", "error", err)
	}
}

func isQuotaRejection(err error) bool {
	var se *services.ServiceError
	return errors.As(err, &se) && se.Status == http.StatusTooManyRequests
}
