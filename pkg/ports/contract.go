package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunProgressStoreContract runs a suite of tests to verify that a ProgressStore
// implementation adheres to the defined interface contract.
func RunProgressStoreContract(t *testing.T, store ProgressStore) {
	ctx := context.Background()
	base := domain.ReaderID(time.Now().UnixNano() % 1_000_000_000)

	t.Run("Get Missing", func(t *testing.T) {
		_, err := store.Get(ctx, base+1)
		assert.ErrorIs(t, err, domain.ErrProgressNotFound)
	})

	t.Run("Set and Get", func(t *testing.T) {
		reader := base + 2
		require.NoError(t, store.Set(ctx, reader, "Forest"))

		got, err := store.Get(ctx, reader)
		require.NoError(t, err)
		assert.Equal(t, "Forest", got)
	})

	t.Run("Set Is Idempotent", func(t *testing.T) {
		reader := base + 3
		require.NoError(t, store.Set(ctx, reader, "Cave"))
		require.NoError(t, store.Set(ctx, reader, "Cave"))

		got, err := store.Get(ctx, reader)
		require.NoError(t, err)
		assert.Equal(t, "Cave", got)

		if lister, ok := store.(ProgressLister); ok {
			rows, err := lister.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, countRows(rows, reader), "expected exactly one row for reader")
		}
	})

	t.Run("Last Write Wins", func(t *testing.T) {
		reader := base + 4
		require.NoError(t, store.Set(ctx, reader, "Start"))
		require.NoError(t, store.Set(ctx, reader, "Forest"))

		got, err := store.Get(ctx, reader)
		require.NoError(t, err)
		assert.Equal(t, "Forest", got)
	})

	t.Run("Readers Are Isolated", func(t *testing.T) {
		a, b := base+5, base+6
		require.NoError(t, store.Set(ctx, a, "Start"))
		require.NoError(t, store.Set(ctx, b, "Cave"))

		gotA, err := store.Get(ctx, a)
		require.NoError(t, err)
		gotB, err := store.Get(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "Start", gotA)
		assert.Equal(t, "Cave", gotB)
	})

	t.Run("Passage Names Are Preserved", func(t *testing.T) {
		reader := base + 7
		name := "The 'Old' Mill | Part 2 -> ünïcode"
		require.NoError(t, store.Set(ctx, reader, name))

		got, err := store.Get(ctx, reader)
		require.NoError(t, err)
		assert.Equal(t, name, got)
	})

	if lister, ok := store.(ProgressLister); ok {
		t.Run("List", func(t *testing.T) {
			reader := base + 8
			require.NoError(t, store.Set(ctx, reader, "Forest"))

			rows, err := lister.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, countRows(rows, reader))
			for _, row := range rows {
				if row.ReaderID == reader {
					assert.Equal(t, "Forest", row.CurrentPassage)
				}
			}
		})
	}
}

func countRows(rows []domain.ReaderProgress, reader domain.ReaderID) int {
	n := 0
	for _, row := range rows {
		if row.ReaderID == reader {
			n++
		}
	}
	return n
}
