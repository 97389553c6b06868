package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "storyline:progress:"

// noExpiry is the index score used when no TTL is set (2100-01-01).
const noExpiry = 4102444800

// Store implements ports.ProgressStore and ports.ProgressLister using Redis.
// Each reader is one JSON value at {prefix}{reader_id}; {prefix}index is a
// sorted set of reader ids scored by expiry.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for progress rows. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client so a Locker can share the connection.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Prefix returns the key prefix in use.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(readerID domain.ReaderID) string {
	return s.prefix + readerID.String()
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get returns the reader's current passage.
func (s *Store) Get(ctx context.Context, readerID domain.ReaderID) (string, error) {
	val, err := s.client.Get(ctx, s.key(readerID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", domain.ErrProgressNotFound
		}
		return "", fmt.Errorf("failed to get from redis: %w", err)
	}

	var p domain.ReaderProgress
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return "", fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return p.CurrentPassage, nil
}

// Set upserts the reader's current passage.
func (s *Store) Set(ctx context.Context, readerID domain.ReaderID, passage string) error {
	data, err := json.Marshal(domain.ReaderProgress{
		ReaderID:       readerID,
		CurrentPassage: passage,
		UpdatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiry
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(readerID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: readerID.String()})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// List returns every stored row ordered by reader id. Expired entries are
// pruned from the index lazily.
func (s *Store) List(ctx context.Context) ([]domain.ReaderProgress, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired progress: %w", err)
	}

	members, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	if len(members) == 0 {
		return []domain.ReaderProgress{}, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = s.prefix + m
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	rows := make([]domain.ReaderProgress, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // expired between ZRANGE and MGET
		}
		var p domain.ReaderProgress
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
		}
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ReaderID < rows[j].ReaderID })
	return rows, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
