// Package mqtt publishes engine lifecycle events to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/domain"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// Client is the subset of paho.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher turns lifecycle events into MQTT messages on
// {prefix}/{reader_id}/{event_type}.
type Publisher struct {
	client  Client
	prefix  string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithQoS sets the MQTT quality of service (default 1).
func WithQoS(qos byte) Option {
	return func(p *Publisher) {
		p.qos = qos
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher on an already connected client.
func NewPublisher(client Client, prefix string, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, "/"),
		qos:     1,
		timeout: 10 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials broker and returns a connected paho client.
func Connect(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return client, nil
}

// Topic returns the topic an event of type t for reader is published on.
func (p *Publisher) Topic(reader domain.ReaderID, t domain.EventType) string {
	return fmt.Sprintf("%s/%d/%s", p.prefix, int64(reader), t)
}

// Hooks returns lifecycle hooks that publish every event.
func (p *Publisher) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(_ context.Context, e *domain.SessionEvent) { p.publish(e.EventBase, e) },
		OnPassageEnter: func(_ context.Context, e *domain.PassageEvent) { p.publish(e.EventBase, e) },
		OnChoice:       func(_ context.Context, e *domain.ChoiceEvent) { p.publish(e.EventBase, e) },
		OnTimeout:      func(_ context.Context, e *domain.SessionEvent) { p.publish(e.EventBase, e) },
		OnSessionEnd:   func(_ context.Context, e *domain.SessionEvent) { p.publish(e.EventBase, e) },
	}
}

// publish sends without blocking the session; delivery is confirmed in the background.
func (p *Publisher) publish(base domain.EventBase, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("Failed to marshal event", "type", base.Type, "err", err)
		return
	}

	topic := p.Topic(base.ReaderID, base.Type)
	token := p.client.Publish(topic, p.qos, false, payload)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if !token.WaitTimeout(p.timeout) {
			p.logger.Warn("MQTT publish timed out", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("MQTT publish failed", "topic", topic, "err", err)
		}
	}()
}

// Flush waits for outstanding deliveries to settle.
func (p *Publisher) Flush() {
	p.wg.Wait()
}
