// Package postgres stores reader progress in PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
	_ "github.com/lib/pq"
)

// Options are the connection settings. Port is optional; zero leaves it to libpq.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string
}

// DSN renders the options as a libpq key/value connection string.
// Empty fields are omitted.
func (o Options) DSN() string {
	var port string
	if o.Port > 0 {
		port = strconv.Itoa(o.Port)
	}
	pairs := [][2]string{
		{"host", o.Host},
		{"port", port},
		{"user", o.Username},
		{"password", o.Password},
		{"dbname", o.Database},
		{"sslmode", o.SSLMode},
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		parts = append(parts, p[0]+"="+quote(p[1]))
	}
	return strings.Join(parts, " ")
}

// quote escapes a value for the key/value DSN format.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

const schema = `
CREATE TABLE IF NOT EXISTS user_progress (
	user_id         BIGINT PRIMARY KEY,
	current_passage TEXT NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store implements ports.ProgressStore and ports.ProgressLister on the
// user_progress table.
type Store struct {
	db *sql.DB
}

// Open connects, pings and ensures the schema exists.
func Open(ctx context.Context, opts Options) (*Store, error) {
	db, err := sql.Open("postgres", opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := NewFromDB(db)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewFromDB wraps an existing handle. The caller owns schema creation.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the progress table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create user_progress table: %w", err)
	}
	return nil
}

// Get returns the reader's current passage.
func (s *Store) Get(ctx context.Context, readerID domain.ReaderID) (string, error) {
	var passage string
	err := s.db.QueryRowContext(ctx,
		`SELECT current_passage FROM user_progress WHERE user_id = $1`,
		int64(readerID),
	).Scan(&passage)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrProgressNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query progress: %w", err)
	}
	return passage, nil
}

// Set upserts the reader's current passage.
func (s *Store) Set(ctx context.Context, readerID domain.ReaderID, passage string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_progress (user_id, current_passage, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET current_passage = EXCLUDED.current_passage, updated_at = EXCLUDED.updated_at`,
		int64(readerID), passage, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	return nil
}

// List returns every row ordered by reader id.
func (s *Store) List(ctx context.Context) ([]domain.ReaderProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, current_passage, updated_at FROM user_progress ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	out := []domain.ReaderProgress{}
	for rows.Next() {
		var (
			id int64
			p  domain.ReaderProgress
		)
		if err := rows.Scan(&id, &p.CurrentPassage, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		p.ReaderID = domain.ReaderID(id)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReaderID < out[j].ReaderID })
	return out, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
