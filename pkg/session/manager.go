package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
)

// ErrSessionActive is returned by Begin when the reader already has a running session.
var ErrSessionActive = errors.New("reader already has an active session")

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager decorates a ProgressStore so that reads and writes for the same
// reader never interleave. It uses reference counting to garbage collect
// unused locks. It also tracks which readers have a session running in this
// process.
type Manager struct {
	store ports.ProgressStore

	mu    sync.Mutex                     // Global lock for the maps
	locks map[domain.ReaderID]*lockEntry // Active per-reader locks
	live  map[domain.ReaderID]struct{}   // Readers with a running session

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager wraps store.
func NewManager(store ports.ProgressStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[domain.ReaderID]*lockEntry),
		live:    make(map[domain.ReaderID]struct{}),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(readerID) after unlocking.
func (m *Manager) acquire(readerID domain.ReaderID) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[readerID]
	if !exists {
		entry = &lockEntry{}
		m.locks[readerID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(readerID domain.ReaderID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[readerID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, readerID)
	}
}

// Get reads the reader's progress under the reader's lock.
func (m *Manager) Get(ctx context.Context, readerID domain.ReaderID) (string, error) {
	var passage string
	err := m.WithLock(ctx, readerID, func(ctx context.Context) error {
		var err error
		passage, err = m.store.Get(ctx, readerID)
		return err
	})
	return passage, err
}

// Set writes the reader's progress under the reader's lock.
func (m *Manager) Set(ctx context.Context, readerID domain.ReaderID, passage string) error {
	return m.WithLock(ctx, readerID, func(ctx context.Context) error {
		return m.store.Set(ctx, readerID, passage)
	})
}

// List delegates to the store when it can list.
func (m *Manager) List(ctx context.Context) ([]domain.ReaderProgress, error) {
	lister, ok := m.store.(ports.ProgressLister)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ports.ErrListUnsupported, m.store)
	}
	return lister.List(ctx)
}

// Store returns the underlying progress store.
func (m *Manager) Store() ports.ProgressStore {
	return m.store
}

// WithLock executes fn while holding the lock for the reader.
func (m *Manager) WithLock(ctx context.Context, readerID domain.ReaderID, fn func(context.Context) error) error {
	entry := m.acquire(readerID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(readerID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "reader:"+readerID.String(), m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"reader_id", int64(readerID),
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Begin marks a session for the reader as running. The returned func ends it.
// It fails with ErrSessionActive if one is already running in this process.
func (m *Manager) Begin(readerID domain.ReaderID) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.live[readerID]; busy {
		return nil, ErrSessionActive
	}
	m.live[readerID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.live, readerID)
		})
	}, nil
}

// Active reports whether the reader has a running session.
func (m *Manager) Active(readerID domain.ReaderID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live[readerID]
	return ok
}
