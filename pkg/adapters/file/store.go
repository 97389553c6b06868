package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/natefinch/atomic"
)

// DefaultPath is used when New receives an empty path.
var DefaultPath = filepath.Join(".storyline", "progress.json")

// document is the on-disk layout. Keys are reader ids in base 10.
type document struct {
	Readers map[string]domain.ReaderProgress `json:"readers"`
}

// Store implements ports.ProgressStore and ports.ProgressLister on a single
// JSON file. Every write replaces the whole file atomically, so a crash leaves
// either the old or the new document, never a partial one.
// Safe for concurrent use within one process.
type Store struct {
	Path string
	mu   sync.Mutex
}

// New creates a new Store backed by path.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{Path: path}
}

// Get returns the reader's current passage.
func (s *Store) Get(ctx context.Context, readerID domain.ReaderID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return "", err
	}
	p, ok := doc.Readers[readerID.String()]
	if !ok {
		return "", domain.ErrProgressNotFound
	}
	return p.CurrentPassage, nil
}

// Set upserts the reader's current passage.
func (s *Store) Set(ctx context.Context, readerID domain.ReaderID, passage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Readers[readerID.String()] = domain.ReaderProgress{
		ReaderID:       readerID,
		CurrentPassage: passage,
		UpdatedAt:      time.Now().UTC(),
	}
	return s.write(doc)
}

// List returns every row ordered by reader id.
func (s *Store) List(ctx context.Context) ([]domain.ReaderProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	rows := make([]domain.ReaderProgress, 0, len(doc.Readers))
	for _, p := range doc.Readers {
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ReaderID < rows[j].ReaderID })
	return rows, nil
}

func (s *Store) read() (*document, error) {
	doc := &document{Readers: map[string]domain.ReaderProgress{}}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress file: %w", err)
	}
	if doc.Readers == nil {
		doc.Readers = map[string]domain.ReaderProgress{}
	}
	return doc, nil
}

func (s *Store) write(doc *document) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("failed to ensure progress directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := atomic.WriteFile(s.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	return nil
}
