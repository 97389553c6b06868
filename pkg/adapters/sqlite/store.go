// Package sqlite stores reader progress in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_progress (
	user_id         INTEGER PRIMARY KEY,
	current_passage TEXT NOT NULL,
	updated_at      INTEGER NOT NULL
)`

// Store implements ports.ProgressStore and ports.ProgressLister.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the database file and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create user_progress table: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get returns the reader's current passage.
func (s *Store) Get(ctx context.Context, readerID domain.ReaderID) (string, error) {
	var passage string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT current_passage FROM user_progress WHERE user_id = ?`, int64(readerID),
	).Scan(&passage)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrProgressNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query progress: %w", err)
	}
	return passage, nil
}

// Set upserts the reader's current passage.
func (s *Store) Set(ctx context.Context, readerID domain.ReaderID, passage string) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO user_progress (user_id, current_passage, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			current_passage = excluded.current_passage,
			updated_at = excluded.updated_at`,
		int64(readerID), passage, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// List returns every row ordered by reader id.
func (s *Store) List(ctx context.Context) ([]domain.ReaderProgress, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT user_id, current_passage, updated_at FROM user_progress ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	out := []domain.ReaderProgress{}
	for rows.Next() {
		var (
			id      int64
			passage string
			millis  int64
		)
		if err := rows.Scan(&id, &passage, &millis); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, domain.ReaderProgress{
			ReaderID:       domain.ReaderID(id),
			CurrentPassage: passage,
			UpdatedAt:      time.UnixMilli(millis).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return out, nil
}
