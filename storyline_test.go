package storyline_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cave.twee")
	require.NoError(t, os.WriteFile(path, []byte(cave), 0o644))

	eng, err := storyline.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "The Cave", eng.Story().Title())
	assert.NoError(t, eng.Validate())

	_, err = storyline.Load(filepath.Join(t.TempDir(), "missing.twee"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNew_Errors(t *testing.T) {
	_, err := storyline.New("")
	var malformed *domain.MalformedStoryError
	assert.ErrorAs(t, err, &malformed)

	_, err = storyline.New(":: Intro\nNo start here.")
	var noStart *domain.NoStartPassageError
	assert.ErrorAs(t, err, &noStart)
}

func TestValidate_DeadLink(t *testing.T) {
	eng, err := storyline.New(":: Start\n[[Nowhere]]")
	require.NoError(t, err)
	assert.ErrorContains(t, eng.Validate(), "Nowhere")
}

func TestCustomAdapters(t *testing.T) {
	store := memory.NewStore()
	tr := memory.NewTransport()
	eng, err := storyline.New(cave,
		storyline.WithStore(store),
		storyline.WithTransport(tr),
		storyline.WithChoiceTimeout(20*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Same(t, store, eng.Store())
	inbox, ok := eng.Transport()
	require.True(t, ok)
	assert.Same(t, tr, inbox)

	// Nobody answers: the session times out cleanly and writes nothing.
	require.NoError(t, eng.Play(t.Context(), 3))
	_, err = store.Get(t.Context(), 3)
	assert.ErrorIs(t, err, domain.ErrProgressNotFound)
	last, ok := tr.Last(3)
	require.True(t, ok)
	assert.True(t, last.Withdrawn)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, storyline.Version)
}
