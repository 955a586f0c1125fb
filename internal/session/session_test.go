package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/services"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/desertthunder/songdl/internal/tasks"
)

type memStore struct {
	mu   sync.Mutex
	cred string
	err  error
}

func (m *memStore) Get() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred, m.cred != "", m.err
}

func (m *memStore) Set(c string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = c
	return m.err
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = ""
	return m.err
}

// fakeBackend serves quota and download endpoints. Each download costs serverCost
// from the server-side counter.
type fakeBackend struct {
	mu          sync.Mutex
	remaining   int
	total       any
	tier        string
	serverCost  int
	quotaCalls  int
	downloadErr int
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/quota", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.quotaCalls++
		json.NewEncoder(w).Encode(map[string]any{"remaining": b.remaining, "total": b.total, "tier": b.tier})
	})
	mux.HandleFunc("/api/user/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test-Auth") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":"u1","username":"listener","tier":"free"}`))
	})
	mux.HandleFunc("/api/songs/{id}/download", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.downloadErr != 0 {
			w.WriteHeader(b.downloadErr)
			return
		}
		b.remaining -= b.serverCost
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("audio"))
	})
	return mux
}

func newTestSession(t *testing.T, b *fakeBackend, store *memStore) *Session {
	t.Helper()
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)

	logger := log.New(io.Discard)
	cfg := shared.DefaultConfig()
	cfg.Quota = shared.QuotaConfig{FreeDaily: 10, PremiumDaily: 100, PremiumUnlimited: true}

	gw := services.NewGateway(services.GatewayOpts{BaseURL: server.URL, Logger: logger})
	return New(Deps{Config: cfg, Tokens: store, Gateway: gw, Logger: logger})
}

func TestSession(t *testing.T) {
	song := models.Song{ID: "song1", Title: "One", Artist: "Someone"}

	t.Run("Open Signed Out Skips Backend", func(t *testing.T) {
		b := &fakeBackend{remaining: 5, total: 10, tier: "free"}
		s := newTestSession(t, b, &memStore{})

		if err := s.Open(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.quotaCalls != 0 {
			t.Errorf("expected no quota call, got %d", b.quotaCalls)
		}
		if c := s.Capabilities(); c.SignedIn || c.CanDownload {
			t.Errorf("unexpected capabilities %+v", c)
		}
	})

	t.Run("Open Signed In Loads Quota", func(t *testing.T) {
		b := &fakeBackend{remaining: 5, total: 10, tier: "free"}
		s := newTestSession(t, b, &memStore{cred: "abc"})

		if err := s.Open(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if snap := s.Quota().Snapshot(); snap.Remaining != 5 || snap.Total != 10 {
			t.Errorf("unexpected quota %+v", snap)
		}
		if c := s.Capabilities(); !c.SignedIn || !c.CanDownload {
			t.Errorf("unexpected capabilities %+v", c)
		}
	})

	t.Run("Open Credential Error", func(t *testing.T) {
		s := newTestSession(t, &fakeBackend{}, &memStore{err: errors.New("db locked")})
		if err := s.Open(context.Background()); err == nil {
			t.Error("expected credential store error")
		}
	})

	t.Run("Open Keeps Preview When Quota Fails", func(t *testing.T) {
		s := New(Deps{
			Tokens:  &memStore{cred: "abc"},
			Gateway: services.NewGateway(services.GatewayOpts{BaseURL: "http://127.0.0.1:1", Logger: log.New(io.Discard)}),
			Logger:  log.New(io.Discard),
		})
		if err := s.Open(context.Background()); err != nil {
			t.Fatalf("quota failure must not fail Open, got %v", err)
		}
		if s.Quota().Known() {
			t.Error("expected preview quota")
		}
	})

	t.Run("Download Uses Authoritative Quota", func(t *testing.T) {
		b := &fakeBackend{remaining: 10, total: 10, tier: "free", serverCost: 2}
		s := newTestSession(t, b, &memStore{cred: "abc"})
		s.Open(context.Background())

		st, err := s.Download(context.Background(), song)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if st.Phase != tasks.Succeeded || st.Progress != 100 {
			t.Errorf("unexpected state %+v", st)
		}
		if got := s.Quota().Snapshot().Remaining; got != 8 {
			t.Errorf("expected server value 8 to override local 9, got %d", got)
		}
	})

	t.Run("Download Keeps Optimistic Value When Refresh Fails", func(t *testing.T) {
		b := &fakeBackend{remaining: 10, total: 10, tier: "free", serverCost: 1}
		s := newTestSession(t, b, &memStore{cred: "abc"})
		s.Open(context.Background())
		b.mu.Lock()
		b.total = "bogus"
		b.mu.Unlock()

		if _, err := s.Download(context.Background(), song); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := s.Quota().Snapshot().Remaining; got != 9 {
			t.Errorf("expected optimistic 9, got %d", got)
		}
	})

	t.Run("Download Requires Sign In", func(t *testing.T) {
		s := newTestSession(t, &fakeBackend{}, &memStore{})
		if _, err := s.Download(context.Background(), song); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Download Disabled When Exhausted", func(t *testing.T) {
		b := &fakeBackend{remaining: 0, total: 10, tier: "free"}
		s := newTestSession(t, b, &memStore{cred: "abc"})
		s.Open(context.Background())

		if c := s.Capabilities(); c.CanDownload {
			t.Error("expected download capability to be disabled")
		}
		if _, err := s.Download(context.Background(), song); !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Errorf("expected ErrQuotaExhausted, got %v", err)
		}
	})

	t.Run("Rejected Download Refreshes Quota", func(t *testing.T) {
		b := &fakeBackend{remaining: 3, total: 10, tier: "free", downloadErr: http.StatusTooManyRequests}
		s := newTestSession(t, b, &memStore{cred: "abc"})
		s.Open(context.Background())
		b.mu.Lock()
		b.remaining = 0
		b.mu.Unlock()

		st, err := s.Download(context.Background(), song)
		if !errors.Is(err, services.ErrService) {
			t.Fatalf("expected service error, got %v", err)
		}
		if st.Phase != tasks.Failed {
			t.Errorf("expected failed, got %v", st.Phase)
		}
		if !s.Quota().Exhausted() {
			t.Error("expected quota refreshed to exhausted")
		}
	})

	t.Run("DownloadAll", func(t *testing.T) {
		b := &fakeBackend{remaining: 10, total: "unlimited", tier: "premium", serverCost: 0}
		s := newTestSession(t, b, &memStore{cred: "abc"})
		s.Open(context.Background())

		songs := []models.Song{{ID: "1"}, {ID: "2"}, {ID: "3"}}
		res, err := s.DownloadAll(context.Background(), songs, tasks.BatchOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Succeeded != 3 {
			t.Errorf("expected 3 successes, got %+v", res)
		}
		if !s.Quota().Snapshot().IsUnlimited() {
			t.Error("expected unlimited quota to be kept")
		}
	})

	t.Run("SignIn And SignOut", func(t *testing.T) {
		b := &fakeBackend{remaining: 2, total: 10, tier: "free"}
		store := &memStore{}
		s := newTestSession(t, b, store)

		if err := s.SignIn(context.Background(), "tok"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.Quota().Snapshot().Remaining != 2 {
			t.Error("expected quota loaded on sign in")
		}

		s.Playback().Select(song)
		s.Tracker().Start(context.Background(), "song1", services.DownloadRequest(song))

		if err := s.SignOut(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok, _ := store.Get(); ok {
			t.Error("expected credential cleared")
		}
		if s.Playback().State() != Empty {
			t.Error("expected playback closed")
		}
		if len(s.Tracker().States()) != 0 {
			t.Error("expected transfers abandoned")
		}
		if s.Quota().Known() {
			t.Error("expected quota reset")
		}
		if s.Capabilities().SignedIn {
			t.Error("expected signed out")
		}
	})

	t.Run("SignIn Store Failure", func(t *testing.T) {
		s := newTestSession(t, &fakeBackend{}, &memStore{err: errors.New("read only")})
		if err := s.SignIn(context.Background(), "tok"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Profile Unauthorized", func(t *testing.T) {
		s := newTestSession(t, &fakeBackend{}, &memStore{cred: "abc"})
		if _, err := s.Profile(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestWatchStorage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "songdl.db")
	if err := os.WriteFile(path, []byte("db"), 0644); err != nil {
		t.Fatal(err)
	}

	s := New(Deps{Tokens: &memStore{cred: "abc"}, Gateway: services.NewGateway(services.GatewayOpts{}), Logger: log.New(io.Discard)})
	s.Playback().Select(models.Song{ID: "x"})
	s.Quota().ApplyServerSnapshot(1, 10, models.Free)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleared := make(chan struct{}, 1)
	errs := make(chan error, 1)
	go func() { errs <- s.WatchStorage(ctx, path, func() { cleared <- struct{}{} }) }()

	// let the watcher register before removing the file
	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	select {
	case <-cleared:
	case <-time.After(2 * time.Second):
		t.Fatal("expected teardown after storage removal")
	}

	if s.Playback().State() != Empty || s.Quota().Known() {
		t.Error("expected session state to be torn down")
	}

	cancel()
	if err := <-errs; err != nil {
		t.Errorf("expected clean exit, got %v", err)
	}
}
