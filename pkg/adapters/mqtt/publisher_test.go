package mqtt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/adapters/mqtt"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// doneToken is an already completed paho.Token.
type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (t doneToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return doneToken{err: c.err}
}

func TestPublisher_Hooks(t *testing.T) {
	client := &fakeClient{}
	pub := mqtt.NewPublisher(client, "storyline/events/")
	hooks := pub.Hooks()

	base := domain.EventBase{Timestamp: time.Now(), SessionID: "s1", ReaderID: 42}
	choice := base
	choice.Type = domain.EventChoice
	hooks.OnChoice(context.Background(), &domain.ChoiceEvent{EventBase: choice, From: "Start", Target: "Cave"})

	end := base
	end.Type = domain.EventSessionEnd
	hooks.OnSessionEnd(context.Background(), &domain.SessionEvent{EventBase: end, Reason: domain.EndTerminal})
	pub.Flush()

	require.Len(t, client.msgs, 2)
	assert.Equal(t, "storyline/events/42/choice", client.msgs[0].topic)
	assert.Equal(t, byte(1), client.msgs[0].qos)
	assert.Equal(t, "storyline/events/42/session_end", client.msgs[1].topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(client.msgs[0].payload, &got))
	assert.Equal(t, "Cave", got["target"])
	assert.Equal(t, "s1", got["session_id"])
}

func TestPublisher_LogsDeliveryFailure(t *testing.T) {
	var buf bytes.Buffer
	client := &fakeClient{err: errors.New("not connected")}
	pub := mqtt.NewPublisher(client, "t",
		mqtt.WithQoS(0),
		mqtt.WithLogger(logging.NewWriter(&buf, slog.LevelDebug, "text")))

	pub.Hooks().OnTimeout(context.Background(), &domain.SessionEvent{
		EventBase: domain.EventBase{Type: domain.EventTimeout, ReaderID: 1},
	})
	pub.Flush()

	assert.Contains(t, buf.String(), "MQTT publish failed")
	assert.Contains(t, buf.String(), "not connected")
	assert.Equal(t, byte(0), client.msgs[0].qos)
}
