// Package sqlite is a durable core.SessionStore on SQLite (modernc.org/sqlite,
// no cgo). State is one JSON document per session; events are appended rows.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/mailmesh/core"
	"github.com/hupe1980/mailmesh/internal/sqlitedb"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	app_name   TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	session_id TEXT NOT NULL,
	state_json TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (app_name, user_id, session_id)
);

CREATE TABLE IF NOT EXISTS session_events (
	app_name   TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	event_json TEXT NOT NULL,
	PRIMARY KEY (app_name, user_id, session_id, seq),
	FOREIGN KEY (app_name, user_id, session_id)
		REFERENCES sessions (app_name, user_id, session_id) ON DELETE CASCADE
);
`

// Store implements core.SessionStore.
type Store struct {
	db *sql.DB
}

var _ core.SessionStore = (*Store)(nil)

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

// Create inserts an empty session.
func (s *Store) Create(ctx context.Context, key core.SessionKey) (*core.Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	sess := core.NewSession(key)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (app_name, user_id, session_id, state_json, created_at, updated_at)
		VALUES (?, ?, ?, '{}', ?, ?)`,
		key.AppName, key.UserID, key.ID, sess.Created.UnixNano(), sess.Updated.UnixNano())
	if err != nil {
		if isConstraint(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrSessionExists, key)
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return sess, nil
}

// Get loads state and events.
func (s *Store) Get(ctx context.Context, key core.SessionKey) (*core.Session, error) {
	var (
		stateJSON          string
		created, updated int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT state_json, created_at, updated_at FROM sessions
		WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		key.AppName, key.UserID, key.ID).Scan(&stateJSON, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	sess := core.NewSession(key)
	sess.Created = time.Unix(0, created).UTC()
	sess.Updated = time.Unix(0, updated).UTC()

	if err := json.Unmarshal([]byte(stateJSON), &sess.State); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_json FROM session_events
		WHERE app_name = ? AND user_id = ? AND session_id = ?
		ORDER BY seq`,
		key.AppName, key.UserID, key.ID)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var ev core.Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		sess.Events = append(sess.Events, ev)
	}

	return sess, rows.Err()
}

// AppendEvent stores ev after the current last event.
func (s *Store) AppendEvent(ctx context.Context, key core.SessionKey, ev core.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	return s.inTx(ctx, key, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_events (app_name, user_id, session_id, seq, event_json)
			VALUES (?, ?, ?, (
				SELECT COALESCE(MAX(seq), 0) + 1 FROM session_events
				WHERE app_name = ? AND user_id = ? AND session_id = ?
			), ?)`,
			key.AppName, key.UserID, key.ID, key.AppName, key.UserID, key.ID, string(raw))
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		return nil
	})
}

// ApplyDelta overwrites the named slots inside one transaction.
func (s *Store) ApplyDelta(ctx context.Context, key core.SessionKey, delta map[string]any) error {
	if len(delta) == 0 {
		return nil
	}

	return s.inTx(ctx, key, func(tx *sql.Tx) error {
		var stateJSON string
		if err := tx.QueryRowContext(ctx, `
			SELECT state_json FROM sessions WHERE app_name = ? AND user_id = ? AND session_id = ?`,
			key.AppName, key.UserID, key.ID).Scan(&stateJSON); err != nil {
			return fmt.Errorf("select state: %w", err)
		}

		state := map[string]any{}
		if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
			return fmt.Errorf("decode state: %w", err)
		}
		for k, v := range delta {
			state[k] = v
		}

		raw, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("encode state: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE sessions SET state_json = ? WHERE app_name = ? AND user_id = ? AND session_id = ?`,
			string(raw), key.AppName, key.UserID, key.ID); err != nil {
			return fmt.Errorf("update state: %w", err)
		}

		return nil
	})
}

// Delete removes the session and its events.
func (s *Store) Delete(ctx context.Context, key core.SessionKey) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		key.AppName, key.UserID, key.ID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction after checking the session exists, and
// bumps updated_at on success.
func (s *Store) inTx(ctx context.Context, key core.SessionKey, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions SET updated_at = ? WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		time.Now().UTC().UnixNano(), key.AppName, key.UserID, key.ID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, key)
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func isConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed")
}
