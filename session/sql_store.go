package session

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLStore persists sessions in a SQL database via database/sql, grounded
// on the teacher's internal/storage/cockroach.go sql.Open/PingContext
// setup shape — generalized to modernc.org/sqlite, a pure-Go driver, so
// this package introduces no cgo dependency.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (and, if necessary, creates) a SQLite database at
// dataSourceName and ensures its schema exists.
func NewSQLStore(ctx context.Context, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: ping database: %w", err)
	}

	store := &SQLStore{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS session_fields (
			session_key TEXT NOT NULL,
			field       TEXT NOT NULL,
			value       BLOB NOT NULL,
			PRIMARY KEY (session_key, field)
		);
		CREATE TABLE IF NOT EXISTS session_list_items (
			session_key TEXT NOT NULL,
			field       TEXT NOT NULL,
			position    INTEGER NOT NULL,
			value       BLOB NOT NULL,
			PRIMARY KEY (session_key, field, position)
		);
	`)
	if err != nil {
		return fmt.Errorf("session: migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Get(ctx context.Context, key SessionKey, field string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM session_fields WHERE session_key = ? AND field = ?`, string(key), field)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("session: get %s/%s: %w", key, field, err)
	}
	return value, true, nil
}

func (s *SQLStore) Put(ctx context.Context, key SessionKey, field string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_fields (session_key, field, value) VALUES (?, ?, ?)
		ON CONFLICT (session_key, field) DO UPDATE SET value = excluded.value
	`, string(key), field, value)
	if err != nil {
		return fmt.Errorf("session: put %s/%s: %w", key, field, err)
	}
	return nil
}

func (s *SQLStore) GetList(ctx context.Context, key SessionKey, field string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT value FROM session_list_items WHERE session_key = ? AND field = ? ORDER BY position ASC
	`, string(key), field)
	if err != nil {
		return nil, fmt.Errorf("session: get list %s/%s: %w", key, field, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("session: scan list item: %w", err)
		}
		out = append(out, value)
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendList(ctx context.Context, key SessionKey, field string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session: begin append: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), -1) FROM session_list_items WHERE session_key = ? AND field = ?
	`, string(key), field)
	var nextPos int
	if err := row.Scan(&nextPos); err != nil {
		return fmt.Errorf("session: get next position: %w", err)
	}
	nextPos++

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_list_items (session_key, field, position, value) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("session: prepare append: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, string(key), field, nextPos, v); err != nil {
			return fmt.Errorf("session: append list item: %w", err)
		}
		nextPos++
	}
	return tx.Commit()
}

func (s *SQLStore) Exists(ctx context.Context, key SessionKey, field string) (bool, error) {
	_, ok, err := s.Get(ctx, key, field)
	return ok, err
}
