package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_PresentAwaitDispatch(t *testing.T) {
	tr := memory.NewTransport()
	ctx := context.Background()
	reader := domain.ReaderID(7)

	msg := domain.Message{
		Text: "Pick",
		Choices: []domain.Choice{
			{Label: "A", Token: "7-0|A"},
			{Label: "B", Token: "7-1|B"},
		},
	}
	ref, err := tr.Present(ctx, reader, msg)
	require.NoError(t, err)

	got := make(chan domain.Interaction, 1)
	go func() {
		in, err := tr.Await(ctx, reader, msg.Tokens())
		if err == nil {
			got <- in
		}
	}()

	require.Eventually(t, func() bool {
		return len(tr.Pending(reader)) == 2
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, tr.Dispatch(domain.Interaction{Kind: domain.InteractionButton, Token: "7-9|Z"}), domain.ErrNoPendingChoice)
	require.NoError(t, tr.Dispatch(domain.Interaction{Kind: domain.InteractionButton, Token: "7-1|B"}))

	select {
	case in := <-got:
		assert.Equal(t, "7-1|B", in.Token)
		assert.Equal(t, reader, in.ReaderID)
	case <-time.After(time.Second):
		t.Fatal("await did not return")
	}

	assert.Empty(t, tr.Pending(reader), "all tokens of a resolved await are released")
	assert.ErrorIs(t, tr.Dispatch(domain.Interaction{Kind: domain.InteractionButton, Token: "7-0|A"}), domain.ErrNoPendingChoice)

	require.NoError(t, tr.Withdraw(ctx, ref))
	history := tr.Messages(reader)
	require.Len(t, history, 1)
	assert.True(t, history[0].Withdrawn)
	assert.Equal(t, msg, history[0].Message)
}

func TestTransport_AwaitHonoursContext(t *testing.T) {
	tr := memory.NewTransport()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tr.Await(ctx, 1, []string{"1-0|X"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, tr.Pending(1))
}

func TestTransport_HistoryLimit(t *testing.T) {
	tr := memory.NewTransport(memory.WithHistoryLimit(2))
	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		_, err := tr.Present(ctx, 1, domain.Message{Text: text})
		require.NoError(t, err)
	}

	history := tr.Messages(1)
	require.Len(t, history, 2)
	assert.Equal(t, "two", history[0].Message.Text)

	last, ok := tr.Last(1)
	require.True(t, ok)
	assert.Equal(t, "three", last.Message.Text)

	_, ok = tr.Last(2)
	assert.False(t, ok)
}

func TestTransport_WithdrawUnknown(t *testing.T) {
	tr := memory.NewTransport()
	err := tr.Withdraw(context.Background(), ports.MessageRef{ReaderID: 3, ID: "42"})
	assert.Error(t, err)
}

func pickMsg() domain.Message {
	return domain.Message{
		Text: "Pick",
		Choices: []domain.Choice{
			{Label: "A", Token: "7-0|A"},
			{Label: "B", Token: "7-1|B"},
		},
	}
}

func TestTransport_DispatchBeforeAwait(t *testing.T) {
	tr := memory.NewTransport()
	ctx := context.Background()
	msg := pickMsg()

	_, err := tr.Present(ctx, 7, msg)
	require.NoError(t, err)
	assert.ElementsMatch(t, msg.Tokens(), tr.Pending(7), "tokens are live as soon as the message is shown")

	require.NoError(t, tr.Dispatch(domain.Interaction{Kind: domain.InteractionButton, Token: "7-0|A"}))
	assert.ErrorIs(t, tr.Dispatch(domain.Interaction{Kind: domain.InteractionButton, Token: "7-1|B"}), domain.ErrNoPendingChoice)

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	in, err := tr.Await(ctx, 7, msg.Tokens())
	require.NoError(t, err)
	assert.Equal(t, "7-0|A", in.Token)
	assert.Equal(t, domain.ReaderID(7), in.ReaderID)
	assert.Empty(t, tr.Pending(7))
}

func TestTransport_DispatchAfterDeadlineIsRejected(t *testing.T) {
	tr := memory.NewTransport()
	msg := pickMsg()

	ref, err := tr.Present(context.Background(), 7, msg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = tr.Await(ctx, 7, msg.Tokens())
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.ErrorIs(t, tr.Dispatch(domain.Interaction{Kind: domain.InteractionButton, Token: "7-0|A"}), domain.ErrNoPendingChoice)
	require.NoError(t, tr.Withdraw(context.Background(), ref))
	assert.Empty(t, tr.Pending(7))
}

func TestTransport_WithdrawDisarms(t *testing.T) {
	tr := memory.NewTransport()
	ref, err := tr.Present(context.Background(), 7, pickMsg())
	require.NoError(t, err)

	require.NoError(t, tr.Withdraw(context.Background(), ref))
	assert.Empty(t, tr.Pending(7))
	assert.ErrorIs(t, tr.Dispatch(domain.Interaction{Kind: domain.InteractionButton, Token: "7-1|B"}), domain.ErrNoPendingChoice)
}

func TestTransport_TerminalMessageArmsNothing(t *testing.T) {
	tr := memory.NewTransport()
	_, err := tr.Present(context.Background(), 7, domain.Message{Text: "The end."})
	require.NoError(t, err)
	assert.Empty(t, tr.Pending(7))
}
