// Package sqlite implements domain.StateStore on a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Rrens/clipboard-ai/internal/domain"
	_ "modernc.org/sqlite"
)

// Store implements domain.StateStore
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (creating if needed) the database at path and migrates it
func NewStore(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, &domain.StorageError{Op: "init", Key: path, Err: err}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &domain.StorageError{Op: "init", Key: path, Err: err}
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &domain.StorageError{Op: "init", Key: path, Err: err}
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, &domain.StorageError{Op: "migrate", Key: path, Err: err}
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) LoadCurrent(ctx context.Context) (*domain.SessionState, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM current_session WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: "current", Err: err}
	}

	state, err := decode(data)
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: "current", Err: err}
	}
	return state, nil
}

func (s *Store) SaveCurrent(ctx context.Context, state *domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return &domain.StorageError{Op: "save", Key: "current", Err: err}
	}

	query := `
		INSERT INTO current_session (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, string(data), s.now()); err != nil {
		return &domain.StorageError{Op: "save", Key: "current", Err: err}
	}
	return nil
}

// ArchiveCurrent moves the current row into archived_sessions in one transaction
func (s *Store) ArchiveCurrent(ctx context.Context) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, &domain.StorageError{Op: "archive", Err: err}
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM current_session WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &domain.StorageError{Op: "archive", Key: "current", Err: err}
	}

	state, err := decode(data)
	if err != nil {
		return false, &domain.StorageError{Op: "archive", Key: "current", Err: err}
	}
	state.Active = false

	archived, err := json.Marshal(state)
	if err != nil {
		return false, &domain.StorageError{Op: "archive", Key: "current", Err: err}
	}

	now := s.now()
	key, err := freeKey(ctx, tx, domain.ArchiveKey(now))
	if err != nil {
		return false, &domain.StorageError{Op: "archive", Err: err}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO archived_sessions (key, data, archived_at) VALUES (?, ?, ?)`,
		key, string(archived), now,
	); err != nil {
		return false, &domain.StorageError{Op: "archive", Key: key, Err: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM current_session WHERE id = 1`); err != nil {
		return false, &domain.StorageError{Op: "archive", Key: "current", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return false, &domain.StorageError{Op: "archive", Key: key, Err: err}
	}
	return true, nil
}

func (s *Store) DeleteCurrent(ctx context.Context) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM current_session WHERE id = 1`)
	if err != nil {
		return false, &domain.StorageError{Op: "delete", Key: "current", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &domain.StorageError{Op: "delete", Key: "current", Err: err}
	}
	return n > 0, nil
}

// ListArchived returns archive keys, most recent first
func (s *Store) ListArchived(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM archived_sessions ORDER BY key DESC`)
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, &domain.StorageError{Op: "list", Err: err}
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "list", Err: err}
	}
	return keys, nil
}

func (s *Store) LoadArchived(ctx context.Context, key string) (*domain.SessionState, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM archived_sessions WHERE key = ?`, key).Scan(&data)
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: key, Err: err}
	}

	state, err := decode(data)
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: key, Err: err}
	}
	return state, nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: "clear", Err: err}
	}
	defer tx.Rollback()

	for _, query := range []string{`DELETE FROM current_session`, `DELETE FROM archived_sessions`} {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return &domain.StorageError{Op: "clear", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StorageError{Op: "clear", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func freeKey(ctx context.Context, tx *sql.Tx, key string) (string, error) {
	candidate := key
	for n := 1; ; n++ {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM archived_sessions WHERE key = ?`, candidate).Scan(&exists)
		if err != nil {
			return "", err
		}
		if exists == 0 {
			return candidate, nil
		}
		candidate = domain.CollisionKey(key, n)
	}
}

func decode(data string) (*domain.SessionState, error) {
	var state domain.SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal: %w", err)
	}
	return &state, nil
}
