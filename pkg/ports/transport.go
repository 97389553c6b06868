package ports

import (
	"context"

	"github.com/aretw0/storyline/pkg/domain"
)

// MessageRef identifies a presented message so its controls can later be withdrawn.
type MessageRef struct {
	ReaderID domain.ReaderID
	ID       string
}

// Transport is the chat surface the engine talks through.
type Transport interface {
	// Present shows msg to the reader and returns a handle to it.
	Present(ctx context.Context, readerID domain.ReaderID, msg domain.Message) (MessageRef, error)

	// Await blocks until the reader selects one of tokens or ctx is done.
	// Interactions carrying any other token are never returned.
	Await(ctx context.Context, readerID domain.ReaderID, tokens []string) (domain.Interaction, error)

	// Withdraw removes the interactive controls of a presented message so a stale
	// choice can no longer be acted on.
	Withdraw(ctx context.Context, ref MessageRef) error
}
