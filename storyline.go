package storyline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/storyline/internal/compiler"
	"github.com/aretw0/storyline/internal/runtime"
	"github.com/aretw0/storyline/internal/validator"
	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
)

// Version is the release version, overridden at build time with -ldflags.
var Version = "0.1.0"

// Engine is the high-level entry point for the Storyline library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime     *runtime.Engine
	story       *domain.Story
	store       ports.ProgressStore
	transport   ports.Transport
	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where reader progress is kept (default: in memory).
func WithStore(store ports.ProgressStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithTransport sets how messages reach readers (default: an in-memory
// transport, see Transport).
func WithTransport(transport ports.Transport) Option {
	return func(e *Engine) {
		e.transport = transport
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLogger(logger))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithChoiceTimeout sets how long a reader may take to pick a choice (default: 600s).
func WithChoiceTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithChoiceTimeout(d))
	}
}

// New parses a Twee 3 story and creates an engine for it.
func New(twee string, opts ...Option) (*Engine, error) {
	story, err := compiler.Parse(twee)
	if err != nil {
		return nil, err
	}
	return NewFromStory(story, opts...), nil
}

// Load reads a Twee 3 story file and creates an engine for it.
func Load(path string, opts ...Option) (*Engine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story: %w", err)
	}
	return New(string(raw), opts...)
}

// NewFromStory creates an engine for an already parsed story.
func NewFromStory(story *domain.Story, opts ...Option) *Engine {
	e := &Engine{story: story}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.transport == nil {
		e.transport = memory.NewTransport()
	}
	e.runtime = runtime.NewEngine(story, e.store, e.transport, e.runtimeOpts...)
	return e
}

// Play runs a session for reader until the story ends, the reader stops
// answering, or ctx is canceled. See runtime.Engine.Play.
func (e *Engine) Play(ctx context.Context, reader domain.ReaderID) error {
	return e.runtime.Play(ctx, reader)
}

// Story returns the parsed story.
func (e *Engine) Story() *domain.Story {
	return e.story
}

// Store returns the progress store.
func (e *Engine) Store() ports.ProgressStore {
	return e.store
}

// Transport returns the in-memory transport when no custom one was configured.
func (e *Engine) Transport() (*memory.Transport, bool) {
	t, ok := e.transport.(*memory.Transport)
	return t, ok
}

// Inspect renders every passage for debugging.
func (e *Engine) Inspect() []runtime.PassageView {
	return runtime.Inspect(e.story)
}

// Validate reports dead links and unreachable passages.
func (e *Engine) Validate() error {
	return validator.Validate(e.story).Err()
}
