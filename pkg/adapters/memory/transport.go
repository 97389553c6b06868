package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
)

// Presented is a message as the reader last saw it.
type Presented struct {
	ID        string         `json:"id"`
	Message   domain.Message `json:"message"`
	Withdrawn bool           `json:"withdrawn"`
	At        time.Time      `json:"at"`
}

// waiter holds the tokens of one presented message until a single interaction
// resolves them. done is set once it accepts no further dispatch.
type waiter struct {
	id      string
	reader  domain.ReaderID
	tokens  []string
	ch      chan domain.Interaction
	done    bool
	awaited bool
}

// Transport is an in-process ports.Transport. Presenting a message with choices
// arms its tokens at once; Await blocks on that waiter until Dispatch routes a
// matching interaction to it.
// Safe for concurrent use.
type Transport struct {
	mu       sync.Mutex
	seq      int
	messages map[domain.ReaderID][]Presented
	pending  map[string]*waiter
	armed    map[string]*waiter // by message ID
	limit    int
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithHistoryLimit caps the number of messages kept per reader (default: 100).
func WithHistoryLimit(n int) TransportOption {
	return func(t *Transport) {
		if n > 0 {
			t.limit = n
		}
	}
}

// NewTransport creates an empty in-memory transport.
func NewTransport(opts ...TransportOption) *Transport {
	t := &Transport{
		messages: make(map[domain.ReaderID][]Presented),
		pending:  make(map[string]*waiter),
		armed:    make(map[string]*waiter),
		limit:    100,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Present records msg in the reader's history and arms its choice tokens, so a
// click that races ahead of Await is still delivered.
func (t *Transport) Present(ctx context.Context, readerID domain.ReaderID, msg domain.Message) (ports.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return ports.MessageRef{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	p := Presented{
		ID:      strconv.Itoa(t.seq),
		Message: msg,
		At:      time.Now().UTC(),
	}
	history := append(t.messages[readerID], p)
	if len(history) > t.limit {
		history = history[len(history)-t.limit:]
	}
	t.messages[readerID] = history

	if !msg.Terminal() {
		w := newWaiter(readerID, msg.Tokens())
		w.id = p.ID
		t.arm(w)
	}
	return ports.MessageRef{ReaderID: readerID, ID: p.ID}, nil
}

// Await blocks until one of tokens is dispatched or ctx ends. It consumes the
// waiter armed by Present for the same tokens, registering one when the message
// was not presented here.
//
// When ctx expires after a dispatch was accepted but before Await noticed, the
// accepted interaction wins over the deadline.
func (t *Transport) Await(ctx context.Context, readerID domain.ReaderID, tokens []string) (domain.Interaction, error) {
	t.mu.Lock()
	w := t.armedFor(readerID, tokens)
	if w == nil {
		w = newWaiter(readerID, tokens)
		t.arm(w)
	}
	w.awaited = true
	t.mu.Unlock()

	select {
	case in := <-w.ch:
		t.release(w)
		return in, nil
	case <-ctx.Done():
	}

	t.mu.Lock()
	accepted := w.done
	w.done = true
	t.unregister(w)
	t.mu.Unlock()

	if accepted && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return <-w.ch, nil
	}
	return domain.Interaction{}, ctx.Err()
}

// Withdraw marks the message as no longer interactive.
func (t *Transport) Withdraw(ctx context.Context, ref ports.MessageRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if w, ok := t.armed[ref.ID]; ok && w.reader == ref.ReaderID {
		w.done = true
		t.unregister(w)
	}

	history := t.messages[ref.ReaderID]
	for i := range history {
		if history[i].ID == ref.ID {
			history[i].Withdrawn = true
			return nil
		}
	}
	return fmt.Errorf("message %s for reader %d not found", ref.ID, int64(ref.ReaderID))
}

// Dispatch routes an interaction to the session waiting on its token.
// It returns domain.ErrNoPendingChoice when no live message carries the token.
// An accepted interaction is always delivered to the session.
func (t *Transport) Dispatch(in domain.Interaction) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.pending[in.Token]
	if !ok || w.done {
		return domain.ErrNoPendingChoice
	}
	if in.ReaderID == 0 {
		in.ReaderID = w.reader
	}
	w.done = true
	t.unregister(w)
	if !w.awaited {
		// Keep it armed so the upcoming Await picks up the buffered answer.
		t.armed[w.id] = w
	}
	w.ch <- in
	return nil
}

// Pending returns the tokens a reader's session is currently waiting on.
func (t *Transport) Pending(readerID domain.ReaderID) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	seen := make(map[*waiter]bool)
	for _, w := range t.pending {
		if w.reader != readerID || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w.tokens...)
	}
	return out
}

// Messages returns a copy of the reader's message history, oldest first.
func (t *Transport) Messages(readerID domain.ReaderID) []Presented {
	t.mu.Lock()
	defer t.mu.Unlock()

	history := t.messages[readerID]
	out := make([]Presented, len(history))
	copy(out, history)
	return out
}

// Last returns the most recent message presented to the reader.
func (t *Transport) Last(readerID domain.ReaderID) (Presented, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	history := t.messages[readerID]
	if len(history) == 0 {
		return Presented{}, false
	}
	return history[len(history)-1], true
}

func newWaiter(reader domain.ReaderID, tokens []string) *waiter {
	return &waiter{
		reader: reader,
		tokens: tokens,
		ch:     make(chan domain.Interaction, 1),
	}
}

// arm registers w's tokens. Caller holds t.mu.
func (t *Transport) arm(w *waiter) {
	for _, tok := range w.tokens {
		t.pending[tok] = w
	}
	if w.id != "" {
		t.armed[w.id] = w
	}
}

// armedFor finds the not yet awaited waiter presented with exactly tokens.
// Caller holds t.mu.
func (t *Transport) armedFor(reader domain.ReaderID, tokens []string) *waiter {
	for _, w := range t.armed {
		if w.reader == reader && !w.awaited && slices.Equal(w.tokens, tokens) {
			return w
		}
	}
	return nil
}

func (t *Transport) release(w *waiter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unregister(w)
}

// unregister drops w's tokens and forgets it. Caller holds t.mu.
func (t *Transport) unregister(w *waiter) {
	for _, tok := range w.tokens {
		if t.pending[tok] == w {
			delete(t.pending, tok)
		}
	}
	if w.id != "" && t.armed[w.id] == w {
		delete(t.armed, w.id)
	}
}
