package runtime_test

import (
	"testing"

	"github.com/aretw0/storyline/internal/runtime"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		links   []domain.Link
	}{
		{
			name:    "Explicit Labels",
			content: "Welcome! [[Go north->Forest]] or [[Go south->Cave]]",
			want:    "Welcome! [[Go north]] or [[Go south]]",
			links:   []domain.Link{{Label: "Go north", Target: "Forest"}, {Label: "Go south", Target: "Cave"}},
		},
		{
			name:    "Bare Link",
			content: "Back to [[Start]].",
			want:    "Back to [[Start]].",
			links:   []domain.Link{{Label: "Start", Target: "Start"}},
		},
		{
			name:    "Repeated Identical Spans",
			content: "[[Run->Exit]] and again [[Run->Exit]]",
			want:    "[[Run]] and again [[Run]]",
			links:   []domain.Link{{Label: "Run", Target: "Exit"}, {Label: "Run", Target: "Exit"}},
		},
		{
			name:    "Emphasis",
			content: "''Bold'' and //italic// and ~~struck~~",
			want:    "**Bold** and *italic* and ~~struck~~",
			links:   []domain.Link{},
		},
		{
			name:    "No Links",
			content: "A damp cave. The end.",
			want:    "A damp cave. The end.",
			links:   []domain.Link{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, links := runtime.Render(domain.Passage{Name: "P", Content: tt.content})
			assert.Equal(t, tt.want, text)
			assert.Equal(t, tt.links, links)
		})
	}
}

func TestRender_Pure(t *testing.T) {
	p := domain.Passage{Name: "P", Content: "''a'' [[x->y]]"}
	t1, l1 := runtime.Render(p)
	t2, l2 := runtime.Render(p)
	assert.Equal(t, t1, t2)
	assert.Equal(t, l1, l2)
	assert.Equal(t, "''a'' [[x->y]]", p.Content)
}

func TestPassageMessage_Tokens(t *testing.T) {
	msg := runtime.PassageMessage(42, domain.Passage{
		Name:    "Start",
		Content: "Welcome! [[Go north->Forest]] or [[Go south->Cave]]",
	})

	assert.Equal(t, "Welcome! [[Go north]] or [[Go south]]", msg.Text)
	assert.Equal(t, []domain.Choice{
		{Label: "Go north", Token: "42-0|Forest"},
		{Label: "Go south", Token: "42-1|Cave"},
	}, msg.Choices)

	terminal := runtime.PassageMessage(42, domain.Passage{Name: "End", Content: "Fin."})
	assert.True(t, terminal.Terminal())
}

func TestTutorialMessage(t *testing.T) {
	msg := runtime.TutorialMessage(5, "Start")
	assert.Equal(t, domain.TutorialText, msg.Text)
	assert.Equal(t, []domain.Choice{{Label: "Click here to start", Token: "5-0|Start"}}, msg.Choices)
}
