package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
)

// MockStore is an in-memory implementation of ProgressStore for testing purposes.
type MockStore struct {
	mu   sync.Mutex
	data map[domain.ReaderID]string
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[domain.ReaderID]string),
	}
}

func (m *MockStore) Get(ctx context.Context, readerID domain.ReaderID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	passage, ok := m.data[readerID]
	if !ok {
		return "", domain.ErrProgressNotFound
	}
	return passage, nil
}

func (m *MockStore) Set(ctx context.Context, readerID domain.ReaderID, passage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[readerID] = passage
	return nil
}

func TestProgressStore_Contract(t *testing.T) {
	// The mock doubles as a self-check of the contract suite.
	ports.RunProgressStoreContract(t, NewMockStore())
}
