package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
)

// Frame is one JSON line written by JSONTransport.
type Frame struct {
	Type    string          `json:"type"` // message, withdraw or error
	ID      string          `json:"id,omitempty"`
	Text    string          `json:"text,omitempty"`
	Choices []domain.Choice `json:"choices,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// JSONTransport implements ports.Transport over JSON-Lines for headless hosts.
// Each presented message is a Frame; the host answers with an interaction
// object ({"kind":"button","token":"..."}) or a bare JSON string token.
type JSONTransport struct {
	lines   *lineSource
	Encoder *json.Encoder

	mu  sync.Mutex
	seq int
}

// NewJSONTransport creates a transport over r and w (stdin/stdout when nil).
func NewJSONTransport(r io.Reader, w io.Writer) *JSONTransport {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONTransport{
		lines:   newLineSource(r),
		Encoder: json.NewEncoder(w),
	}
}

func (t *JSONTransport) emit(f Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Encoder.Encode(f)
}

// Present writes a message frame.
func (t *JSONTransport) Present(ctx context.Context, readerID domain.ReaderID, msg domain.Message) (ports.MessageRef, error) {
	t.mu.Lock()
	t.seq++
	id := strconv.Itoa(t.seq)
	t.mu.Unlock()

	if err := t.emit(Frame{Type: "message", ID: id, Text: msg.Text, Choices: msg.Choices}); err != nil {
		return ports.MessageRef{}, err
	}
	return ports.MessageRef{ReaderID: readerID, ID: id}, nil
}

// Await decodes lines until one carries an allowed token. Other input is
// answered with an error frame.
func (t *JSONTransport) Await(ctx context.Context, readerID domain.ReaderID, tokens []string) (domain.Interaction, error) {
	allowed := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		allowed[tok] = true
	}

	for {
		line, err := t.lines.next(ctx)
		if err != nil {
			return domain.Interaction{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		clean, err := SanitizeInput(line)
		if err != nil {
			_ = t.emit(Frame{Type: "error", Error: err.Error()})
			continue
		}

		in, err := decodeInteraction(clean)
		if err != nil {
			_ = t.emit(Frame{Type: "error", Error: err.Error()})
			continue
		}
		if !allowed[in.Token] {
			_ = t.emit(Frame{Type: "error", Error: domain.ErrNoPendingChoice.Error()})
			continue
		}
		in.ReaderID = readerID
		return in, nil
	}
}

// Withdraw writes a withdraw frame.
func (t *JSONTransport) Withdraw(ctx context.Context, ref ports.MessageRef) error {
	return t.emit(Frame{Type: "withdraw", ID: ref.ID})
}

// decodeInteraction accepts an interaction object or a bare string token.
// A missing kind defaults to button.
func decodeInteraction(line string) (domain.Interaction, error) {
	var token string
	if err := json.Unmarshal([]byte(line), &token); err == nil {
		return domain.Interaction{Kind: domain.InteractionButton, Token: token}, nil
	}
	var in domain.Interaction
	if err := json.Unmarshal([]byte(line), &in); err != nil {
		return domain.Interaction{}, err
	}
	if in.Kind == "" {
		in.Kind = domain.InteractionButton
	}
	return in, nil
}
