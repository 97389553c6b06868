package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/storyline/pkg/adapters/file"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nested", "progress.json"))
	ports.RunProgressStoreContract(t, store)
}

func TestFileStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	ctx := context.Background()

	require.NoError(t, file.New(path).Set(ctx, 3, "Cave"))

	got, err := file.New(path).Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Cave", got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"3"`)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := file.New(path).Get(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrProgressNotFound)
}
