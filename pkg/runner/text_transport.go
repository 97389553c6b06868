package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
)

// ContentRenderer transforms passage text before it is printed, e.g. Markdown
// to ANSI.
type ContentRenderer func(string) (string, error)

// TextTransport implements ports.Transport for an interactive terminal.
// Choices are printed as a numbered list; the reader answers with a number or
// the exact label. "exit" or "quit" ends the session.
type TextTransport struct {
	lines    *lineSource
	Writer   io.Writer
	Renderer ContentRenderer

	mu      sync.Mutex
	seq     int
	live    []liveMessage // presented and not yet withdrawn, oldest first
	quit    chan<- struct{}
	quitted sync.Once
}

type liveMessage struct {
	id      string
	choices []domain.Choice
}

// TextTransportOption configures a TextTransport.
type TextTransportOption func(*TextTransport)

// WithTextRenderer configures the content renderer.
func WithTextRenderer(renderer ContentRenderer) TextTransportOption {
	return func(t *TextTransport) {
		t.Renderer = renderer
	}
}

// WithQuitChannel makes "exit"/"quit" close ch. Pass the same channel to
// WithInterruptSource so the Runner stops the session.
func WithQuitChannel(ch chan<- struct{}) TextTransportOption {
	return func(t *TextTransport) {
		t.quit = ch
	}
}

// NewTextTransport creates a transport over r and w (stdin/stdout when nil).
func NewTextTransport(r io.Reader, w io.Writer, opts ...TextTransportOption) *TextTransport {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	t := &TextTransport{
		lines:  newLineSource(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Present prints the message and its numbered choices.
func (t *TextTransport) Present(ctx context.Context, readerID domain.ReaderID, msg domain.Message) (ports.MessageRef, error) {
	output := msg.Text
	if t.Renderer != nil {
		if rendered, err := t.Renderer(msg.Text); err == nil {
			output = rendered
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.Writer, strings.TrimSpace(output))
	if len(msg.Choices) > 0 {
		fmt.Fprintln(t.Writer)
		for i, c := range msg.Choices {
			fmt.Fprintf(t.Writer, "  %d) %s\n", i+1, c.Label)
		}
	}
	fmt.Fprintln(t.Writer)

	t.seq++
	id := strconv.Itoa(t.seq)
	if len(msg.Choices) > 0 {
		t.live = append(t.live, liveMessage{id: id, choices: msg.Choices})
	}
	return ports.MessageRef{ReaderID: readerID, ID: id}, nil
}

// Await reads lines until one names a choice whose token is in tokens.
func (t *TextTransport) Await(ctx context.Context, readerID domain.ReaderID, tokens []string) (domain.Interaction, error) {
	allowed := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		allowed[tok] = true
	}

	for {
		if err := ctx.Err(); err != nil {
			return domain.Interaction{}, err
		}
		fmt.Fprint(t.Writer, "> ")

		line, err := t.lines.next(ctx)
		if err != nil {
			return domain.Interaction{}, err
		}

		text, err := SanitizeInput(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintf(t.Writer, "Error: %v. Please try again.\n", err)
			continue
		}

		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			if t.signalQuit() {
				// The owner of the quit channel cancels ctx.
				<-ctx.Done()
				return domain.Interaction{}, ctx.Err()
			}
			return domain.Interaction{}, context.Canceled
		}

		choices := t.choices(allowed)
		if tok, ok := match(choices, text); ok {
			return domain.Interaction{Kind: domain.InteractionButton, ReaderID: readerID, Token: tok}, nil
		}
		fmt.Fprintf(t.Writer, "Please pick a number between 1 and %d.\n", len(choices))
	}
}

// Withdraw forgets the choices of a message so they can no longer be picked.
func (t *TextTransport) Withdraw(ctx context.Context, ref ports.MessageRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, m := range t.live {
		if m.id == ref.ID {
			t.live = append(t.live[:i], t.live[i+1:]...)
			break
		}
	}
	return nil
}

// choices returns the live choices whose tokens are allowed, in display order.
func (t *TextTransport) choices(allowed map[string]bool) []domain.Choice {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []domain.Choice
	for _, m := range t.live {
		for _, c := range m.choices {
			if allowed[c.Token] {
				out = append(out, c)
			}
		}
	}
	return out
}

func (t *TextTransport) signalQuit() bool {
	if t.quit == nil {
		return false
	}
	t.quitted.Do(func() { close(t.quit) })
	return true
}

// match resolves a 1-based number or an exact (case-insensitive) label.
func match(choices []domain.Choice, text string) (string, bool) {
	if n, err := strconv.Atoi(text); err == nil {
		if n >= 1 && n <= len(choices) {
			return choices[n-1].Token, true
		}
		return "", false
	}
	for _, c := range choices {
		if strings.EqualFold(c.Label, text) {
			return c.Token, true
		}
	}
	return "", false
}
