package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStory(t *testing.T) {
	passages := []domain.Passage{
		{Name: "Start", Content: "Hello [[Cave]]"},
		{Name: "Cave", Content: "The end."},
	}

	story, err := domain.NewStory("Demo", domain.StoryData{IFID: "X"}, "Start", passages)
	require.NoError(t, err)

	assert.Equal(t, "Demo", story.Title())
	assert.Equal(t, "Start", story.Start())
	assert.Equal(t, 2, story.Len())
	assert.Equal(t, []string{"Start", "Cave"}, story.Names())
	assert.True(t, story.Has("Cave"))
	assert.False(t, story.Has("Forest"))

	p, ok := story.Passage("Cave")
	require.True(t, ok)
	assert.Equal(t, "The end.", p.Content)
}

func TestNewStory_Errors(t *testing.T) {
	t.Run("Duplicate", func(t *testing.T) {
		_, err := domain.NewStory("", domain.StoryData{}, "A", []domain.Passage{{Name: "A"}, {Name: "A"}})
		var malformed *domain.MalformedStoryError
		assert.ErrorAs(t, err, &malformed)
	})

	t.Run("No Start", func(t *testing.T) {
		_, err := domain.NewStory("", domain.StoryData{}, "", []domain.Passage{{Name: "A"}})
		var noStart *domain.NoStartPassageError
		assert.ErrorAs(t, err, &noStart)
	})

	t.Run("Start Does Not Resolve", func(t *testing.T) {
		_, err := domain.NewStory("", domain.StoryData{}, "B", []domain.Passage{{Name: "A"}})
		var missing *domain.MissingPassageError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "B", missing.Name)
	})
}

func TestStory_DataIsCopied(t *testing.T) {
	story, err := domain.NewStory("", domain.StoryData{TagColors: map[string]string{"a": "red"}}, "A", []domain.Passage{{Name: "A"}})
	require.NoError(t, err)

	data := story.Data()
	data.TagColors["a"] = "blue"
	assert.Equal(t, "red", story.Data().TagColors["a"])
}

func TestSession_Expects(t *testing.T) {
	msg := domain.Message{Choices: []domain.Choice{{Label: "Go", Token: "1-0|A"}}}
	s := domain.NewSession("id", 1, "Start", msg, time.Time{})

	assert.True(t, s.Expects("1-0|A"))
	assert.False(t, s.Expects("1-1|A"))
}

func TestProgressStoreError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&domain.ProgressStoreError{Op: "set", ReaderID: 3, Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "reader 3")
}

func TestMalformedStoryError_Message(t *testing.T) {
	err := &domain.MalformedStoryError{Warnings: []domain.Warning{
		{Line: 2, Kind: domain.WarnDuplicateName, Message: "duplicate passage name \"A\""},
		{Line: 5, Kind: domain.WarnUnterminatedLink, Message: "unterminated link"},
	}}
	assert.Contains(t, err.Error(), "2 warnings")
	assert.Contains(t, err.Error(), "line 5: unterminated link")
}

func TestChainHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnChoice: func(ctx context.Context, e *domain.ChoiceEvent) { calls = append(calls, "a:"+e.Target) },
	}
	b := domain.LifecycleHooks{
		OnChoice:     func(ctx context.Context, e *domain.ChoiceEvent) { calls = append(calls, "b:"+e.Target) },
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) { calls = append(calls, "b:end") },
	}

	hooks := domain.ChainHooks(a, b)
	hooks.OnChoice(context.Background(), &domain.ChoiceEvent{Target: "Cave"})
	hooks.OnSessionEnd(context.Background(), &domain.SessionEvent{})
	hooks.OnTimeout(context.Background(), &domain.SessionEvent{})

	assert.Equal(t, []string{"a:Cave", "b:Cave", "b:end"}, calls)
}
