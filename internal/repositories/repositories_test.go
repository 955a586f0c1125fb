package repositories

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/desertthunder/songdl/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestKVRepository(t *testing.T) {
	t.Run("Get missing key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		if _, err := repo.Get("nope"); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("Put then Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		if err := repo.Put("a", "1"); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		got, err := repo.Get("a")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got != "1" {
			t.Errorf("expected 1, got %q", got)
		}
	})

	t.Run("Put overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewKVRepository(db)
		_ = repo.Put("a", "1")
		if err := repo.Put("a", "2"); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		got, _ := repo.Get("a")
		if got != "2" {
			t.Errorf("expected 2, got %q", got)
		}
	})

	t.Run("Delete absent key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewKVRepository(db).Delete("nope"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("closed database", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewKVRepository(db)
		if _, err := repo.Get("a"); err == nil || errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected query error, got %v", err)
		}
		if err := repo.Put("a", "1"); err == nil {
			t.Error("expected put error on closed database")
		}
	})
}

func TestTokenStore(t *testing.T) {
	t.Run("absent credential is not an error", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewTokenStore(NewKVRepository(db), "")
		cred, ok, err := store.Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || cred != "" {
			t.Errorf("expected absent credential, got %q (ok=%v)", cred, ok)
		}
	})

	t.Run("Set then Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewTokenStore(NewKVRepository(db), "token")
		if err := store.Set("abc123"); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		cred, ok, err := store.Get()
		if err != nil || !ok {
			t.Fatalf("expected credential, got ok=%v err=%v", ok, err)
		}
		if cred != "abc123" {
			t.Errorf("expected abc123, got %q", cred)
		}
	})

	t.Run("Set replaces", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewTokenStore(NewKVRepository(db), "token")
		_ = store.Set("first")
		_ = store.Set("second")

		cred, _, _ := store.Get()
		if cred != "second" {
			t.Errorf("expected second, got %q", cred)
		}
	})

	t.Run("Set rejects empty", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewTokenStore(NewKVRepository(db), "token")
		if err := store.Set("   "); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewTokenStore(NewKVRepository(db), "token")
		_ = store.Set("abc")
		if err := store.Clear(); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if _, ok, _ := store.Get(); ok {
			t.Error("expected credential to be cleared")
		}
		if err := store.Clear(); err != nil {
			t.Errorf("second clear should be a no-op, got %v", err)
		}
	})

	t.Run("keys are isolated", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		kv := NewKVRepository(db)
		a := NewTokenStore(kv, "a")
		b := NewTokenStore(kv, "b")
		_ = a.Set("one")

		if _, ok, _ := b.Get(); ok {
			t.Error("store b should not see store a's credential")
		}
	})

	t.Run("Token", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewTokenStore(NewKVRepository(db), "token")
		if _, err := store.Token(); !errors.Is(err, shared.ErrMissingToken) {
			t.Errorf("expected ErrMissingToken, got %v", err)
		}

		_ = store.Set("abc")
		tok, err := store.Token()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.AccessToken != "abc" || tok.Type() != TokenType {
			t.Errorf("unexpected token %+v", tok)
		}
	})
}

func TestOpenTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songdl.db")

	store, db, err := OpenTokenStore(path, "token")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := store.Set("persisted"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	db.Close()

	reopened, db2, err := OpenTokenStore(path, "token")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db2.Close()

	cred, ok, err := reopened.Get()
	if err != nil || !ok || cred != "persisted" {
		t.Errorf("expected persisted credential, got %q ok=%v err=%v", cred, ok, err)
	}
}
