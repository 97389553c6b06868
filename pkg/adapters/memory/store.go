package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
)

// Store implements ports.ProgressStore and ports.ProgressLister in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.ReaderID]domain.ReaderProgress
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.ReaderID]domain.ReaderProgress),
	}
}

// Get returns the reader's current passage.
func (s *Store) Get(ctx context.Context, readerID domain.ReaderID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[readerID]
	if !ok {
		return "", domain.ErrProgressNotFound
	}
	return p.CurrentPassage, nil
}

// Set upserts the reader's current passage.
func (s *Store) Set(ctx context.Context, readerID domain.ReaderID, passage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[readerID] = domain.ReaderProgress{
		ReaderID:       readerID,
		CurrentPassage: passage,
		UpdatedAt:      time.Now().UTC(),
	}
	return nil
}

// List returns all rows ordered by reader id.
func (s *Store) List(ctx context.Context) ([]domain.ReaderProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.ReaderProgress, 0, len(s.data))
	for _, p := range s.data {
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ReaderID < rows[j].ReaderID })
	return rows, nil
}
