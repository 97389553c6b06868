package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
)

// Transport is a memory.Transport that also streams every presented and
// withdrawn message to the reader's SSE subscribers.
type Transport struct {
	*memory.Transport
	Streams *StreamManager
}

// NewTransport wraps inbox (a fresh memory.Transport when nil).
func NewTransport(inbox *memory.Transport) *Transport {
	if inbox == nil {
		inbox = memory.NewTransport()
	}
	return &Transport{Transport: inbox, Streams: NewStreamManager(nil)}
}

// Event is one SSE payload.
type Event struct {
	Type    string          `json:"type"` // message or withdraw
	ID      string          `json:"id"`
	Message *domain.Message `json:"message,omitempty"`
}

// Present records msg and broadcasts it.
func (t *Transport) Present(ctx context.Context, readerID domain.ReaderID, msg domain.Message) (ports.MessageRef, error) {
	ref, err := t.Transport.Present(ctx, readerID, msg)
	if err != nil {
		return ref, err
	}
	t.Streams.Broadcast(readerID, Event{Type: "message", ID: ref.ID, Message: &msg})
	return ref, nil
}

// Withdraw marks the message withdrawn and broadcasts it.
func (t *Transport) Withdraw(ctx context.Context, ref ports.MessageRef) error {
	if err := t.Transport.Withdraw(ctx, ref); err != nil {
		return err
	}
	t.Streams.Broadcast(ref.ReaderID, Event{Type: "withdraw", ID: ref.ID})
	return nil
}

// StreamManager handles active SSE connections per reader.
type StreamManager struct {
	logger      *slog.Logger
	mu          sync.RWMutex
	subscribers map[domain.ReaderID]map[chan<- string]struct{}
}

// NewStreamManager creates an empty manager. A nil logger discards.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[domain.ReaderID]map[chan<- string]struct{}),
	}
}

// Subscribe returns a channel of encoded events and a func to unsubscribe.
func (sm *StreamManager) Subscribe(readerID domain.ReaderID) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[readerID]; !ok {
		sm.subscribers[readerID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[readerID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[readerID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, readerID)
				}
			}
		})
	}
}

// Subscribers returns the number of live subscriptions for a reader.
func (sm *StreamManager) Subscribers(readerID domain.ReaderID) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[readerID])
}

// Broadcast sends ev to every subscriber of the reader. Slow clients drop events.
func (sm *StreamManager) Broadcast(readerID domain.ReaderID, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs := sm.subscribers[readerID]
	if len(subs) == 0 {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		sm.logger.Error("SSE: failed to encode event", "err", err)
		return
	}
	for ch := range subs {
		select {
		case ch <- string(payload):
		default:
			sm.logger.Warn("SSE: client buffer full, dropping event", "reader_id", int64(readerID))
		}
	}
}
