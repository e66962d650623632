// Package sqlite is a durable core.ArtifactStore on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/internal/sqlitedb"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	app_name   TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	session_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	version    INTEGER NOT NULL,
	data       BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (app_name, user_id, session_id, name, version)
);
`

// Store implements core.ArtifactStore.
type Store struct {
	db *sql.DB
}

var _ core.ArtifactStore = (*Store)(nil)

// New opens the database at path and prepares the schema.
func New(path string) (*Store, error) {
	db, err := sqlitedb.Open(path, schema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts the next version of name.
func (s *Store) Save(ctx context.Context, key core.SessionKey, name string, data []byte) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("artifact name is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1 FROM artifacts
		WHERE app_name = ? AND user_id = ? AND session_id = ? AND name = ?`,
		key.AppName, key.UserID, key.ID, name).Scan(&version); err != nil {
		return 0, fmt.Errorf("next version: %w", err)
	}

	if data == nil {
		data = []byte{}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO artifacts (app_name, user_id, session_id, name, version, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key.AppName, key.UserID, key.ID, name, version, data, time.Now().UTC().UnixNano()); err != nil {
		return 0, fmt.Errorf("insert artifact: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return version, nil
}

// Load returns the given version, or the latest for version 0.
func (s *Store) Load(ctx context.Context, key core.SessionKey, name string, version int) ([]byte, error) {
	query := `SELECT data FROM artifacts
		WHERE app_name = ? AND user_id = ? AND session_id = ? AND name = ? AND version = ?`
	args := []any{key.AppName, key.UserID, key.ID, name, version}

	if version == 0 {
		query = `SELECT data FROM artifacts
			WHERE app_name = ? AND user_id = ? AND session_id = ? AND name = ?
			ORDER BY version DESC LIMIT 1`
		args = args[:4]
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrArtifactNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("select artifact: %w", err)
	}

	return data, nil
}

// List returns the sorted artifact names of the session.
func (s *Store) List(ctx context.Context, key core.SessionKey) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT name FROM artifacts
		WHERE app_name = ? AND user_id = ? AND session_id = ?
		ORDER BY name`,
		key.AppName, key.UserID, key.ID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan artifact name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// Delete removes all versions of name.
func (s *Store) Delete(ctx context.Context, key core.SessionKey, name string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM artifacts WHERE app_name = ? AND user_id = ? AND session_id = ? AND name = ?`,
		key.AppName, key.UserID, key.ID, name)
	if err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", core.ErrArtifactNotFound, name)
	}

	return nil
}
