// package repositories provides the sqlite-backed client storage.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/songdl/internal/shared"
)

// OpenTokenStore opens the database at path, applies migrations and returns a [TokenStore] for key.
//
// The returned database must be closed by the caller.
func OpenTokenStore(path, key string) (*TokenStore, *sql.DB, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, nil, err
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewTokenStore(NewKVRepository(db), key), db, nil
}
