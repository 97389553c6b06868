package ports

import (
	"context"
	"errors"

	"github.com/aretw0/storyline/pkg/domain"
)

// ProgressStore persists the last passage each reader reached.
type ProgressStore interface {
	// Get returns the stored passage name for the reader.
	// Returns domain.ErrProgressNotFound if the reader has no stored progress.
	Get(ctx context.Context, readerID domain.ReaderID) (string, error)

	// Set records the passage for the reader, inserting or updating the single row
	// keyed by readerID.
	Set(ctx context.Context, readerID domain.ReaderID, passage string) error
}

// ProgressLister is implemented by stores that can enumerate every reader.
// It is used by inspection tooling, never by live play.
type ProgressLister interface {
	List(ctx context.Context) ([]domain.ReaderProgress, error)
}

// ErrListUnsupported is returned by decorators whose wrapped store is not a
// ProgressLister.
var ErrListUnsupported = errors.New("progress store cannot list")
