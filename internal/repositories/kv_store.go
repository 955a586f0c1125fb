package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrKeyNotFound is returned by [KVRepository.Get] for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// KVRepository persists string values in the kv_store table.
type KVRepository struct {
	db *sql.DB
}

// NewKVRepository creates a new KVRepository with the given database connection
func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get returns the value stored under key or [ErrKeyNotFound].
func (r *KVRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query key %s: %w", key, err)
	}
	return value, nil
}

// Put inserts or replaces the value stored under key.
func (r *KVRepository) Put(key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to store key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *KVRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
