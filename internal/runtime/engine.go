package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/storyline/internal/runtime"

// withdrawTimeout bounds the cleanup call made after every await, which may
// run after the session context is gone.
const withdrawTimeout = 5 * time.Second

// Engine drives one reader at a time through a story: present a passage,
// wait for a choice, persist it, repeat.
// A single Engine is safe to use from many goroutines; each Play call owns its
// own session state.
type Engine struct {
	story     *domain.Story
	store     ports.ProgressStore
	transport ports.Transport
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	timeout   time.Duration
	tracer    trace.Tracer
	newID     func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithChoiceTimeout sets how long a reader may take to pick a choice.
// Non-positive values keep the default.
func WithChoiceTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithTracer overrides the OpenTelemetry tracer (default: the global provider).
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithSessionIDs overrides session id generation.
func WithSessionIDs(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine creates an engine over an already parsed story.
func NewEngine(story *domain.Story, store ports.ProgressStore, transport ports.Transport, opts ...EngineOption) *Engine {
	e := &Engine{
		story:     story,
		store:     store,
		transport: transport,
		logger:    logging.NewNop(),
		timeout:   domain.DefaultChoiceTimeout,
		tracer:    otel.Tracer(tracerName),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Story returns the story the engine plays.
func (e *Engine) Story() *domain.Story {
	return e.story
}

// Timeout returns the per-choice timeout.
func (e *Engine) Timeout() time.Duration {
	return e.timeout
}

// play is the per-call state of a running session.
type play struct {
	id     string
	reader domain.ReaderID
	logger *slog.Logger
}

// Play runs a session for reader until it reaches a terminal passage, times
// out, or fails.
//
// A timeout, closed reader input and a terminal passage all return nil. Cancellation of ctx returns
// ctx.Err(). Any other failure is shown to the reader as the generic failure
// message and returned.
func (e *Engine) Play(ctx context.Context, reader domain.ReaderID) (err error) {
	ctx, span := e.tracer.Start(ctx, "storyline.play",
		trace.WithAttributes(attribute.Int64("storyline.reader_id", int64(reader))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	p := &play{id: e.newID(), reader: reader}
	p.logger = e.logger.With("session_id", p.id, "reader_id", int64(reader))

	passage, tutorial, err := e.resume(ctx, p)
	if err != nil {
		e.fail(ctx, p, "", err)
		return err
	}

	e.emitStart(ctx, p, passage)
	p.logger.Debug("Session started", "passage", passage, "tutorial", tutorial)

	for {
		var msg domain.Message
		if tutorial {
			msg = TutorialMessage(reader, e.story.Start())
		} else {
			current, ok := e.story.Passage(passage)
			if !ok {
				// Targets are resolved before we loop, so this is a broken invariant.
				err := &domain.InvariantError{Reason: fmt.Sprintf("current passage %q vanished", passage)}
				e.fail(ctx, p, passage, err)
				return err
			}
			msg = PassageMessage(reader, current)
		}

		next, reason, err := e.cycle(ctx, p, passage, tutorial, msg)
		switch {
		case err != nil && reason == domain.EndCanceled:
			e.emitEnd(ctx, p, passage, reason, err)
			return err
		case err != nil:
			e.fail(ctx, p, passage, err)
			return err
		case reason != "":
			e.emitEnd(ctx, p, passage, reason, nil)
			return nil
		}

		passage, tutorial = next, false
	}
}

// resume decides where the session starts: the stored passage when it still
// exists, the tutorial otherwise.
func (e *Engine) resume(ctx context.Context, p *play) (string, bool, error) {
	stored, err := e.store.Get(ctx, p.reader)
	if errors.Is(err, domain.ErrProgressNotFound) {
		return "", true, nil
	}
	if err != nil {
		return "", false, &domain.ProgressStoreError{Op: "get", ReaderID: p.reader, Err: err}
	}
	if !e.story.Has(stored) {
		p.logger.Warn("Stored passage no longer exists, restarting with tutorial", "passage", stored)
		return "", true, nil
	}
	return stored, false, nil
}

// cycle presents msg and resolves the reader's answer. It returns the next
// passage, or a non-empty reason when the session is over.
func (e *Engine) cycle(ctx context.Context, p *play, passage string, tutorial bool, msg domain.Message) (string, domain.EndReason, error) {
	ctx, span := e.tracer.Start(ctx, "storyline.cycle", trace.WithAttributes(
		attribute.Int64("storyline.reader_id", int64(p.reader)),
		attribute.String("storyline.passage", passage),
		attribute.Bool("storyline.tutorial", tutorial),
	))
	defer span.End()

	e.emitPassage(ctx, p, passage, tutorial, msg)

	ref, err := e.transport.Present(ctx, p.reader, msg)
	if err != nil {
		if ctx.Err() != nil {
			return "", domain.EndCanceled, ctx.Err()
		}
		return "", domain.EndError, fmt.Errorf("present passage %q: %w", passage, err)
	}
	if msg.Terminal() {
		return "", domain.EndTerminal, nil
	}

	sess := domain.NewSession(p.id, p.reader, passage, msg, time.Now().Add(e.timeout))

	awaitCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	in, err := e.transport.Await(awaitCtx, p.reader, msg.Tokens())
	e.withdraw(ctx, p, ref)

	if err != nil {
		if ctx.Err() != nil {
			return "", domain.EndCanceled, ctx.Err()
		}
		if errors.Is(awaitCtx.Err(), context.DeadlineExceeded) {
			p.logger.Info("Choice timed out", "passage", passage, "timeout", e.timeout)
			if e.hooks.OnTimeout != nil {
				e.hooks.OnTimeout(ctx, &domain.SessionEvent{
					EventBase: e.base(p, domain.EventTimeout),
					Passage:   passage,
					Reason:    domain.EndTimeout,
				})
			}
			return "", domain.EndTimeout, nil
		}
		if errors.Is(err, domain.ErrInputClosed) || errors.Is(err, io.EOF) {
			p.logger.Info("Reader input closed", "passage", passage)
			return "", domain.EndClosed, nil
		}
		return "", domain.EndError, fmt.Errorf("await choice on %q: %w", passage, err)
	}

	target, err := e.accept(sess, in)
	if err != nil {
		span.RecordError(err)
		return "", domain.EndError, err
	}

	if !e.story.Has(target) {
		err := &domain.MissingPassageError{Name: target, From: passage}
		span.RecordError(err)
		return "", domain.EndError, err
	}

	if e.hooks.OnChoice != nil {
		e.hooks.OnChoice(ctx, &domain.ChoiceEvent{
			EventBase: e.base(p, domain.EventChoice),
			From:      passage,
			Target:    target,
		})
	}

	if err := e.store.Set(ctx, p.reader, target); err != nil {
		err := &domain.ProgressStoreError{Op: "set", ReaderID: p.reader, Err: err}
		span.RecordError(err)
		return "", domain.EndError, err
	}
	p.logger.Debug("Choice recorded", "from", passage, "to", target)
	return target, "", nil
}

// accept validates an interaction against the choices of the current cycle and
// returns the chosen target.
func (e *Engine) accept(sess domain.Session, in domain.Interaction) (string, error) {
	switch in.Kind {
	case domain.InteractionButton:
	case domain.InteractionSelectMenu, domain.InteractionTextInput:
		return "", &domain.InvariantError{Reason: fmt.Sprintf("interaction kind %q is never offered", in.Kind)}
	default:
		return "", &domain.InvariantError{Reason: fmt.Sprintf("unknown interaction kind %q", in.Kind)}
	}
	if !sess.Expects(in.Token) {
		return "", &domain.InvariantError{Reason: fmt.Sprintf("token %q was not issued for this choice", in.Token)}
	}
	tok, err := domain.ParseChoiceToken(in.Token)
	if err != nil {
		return "", &domain.InvariantError{Reason: err.Error()}
	}
	if tok.ReaderID != sess.ReaderID {
		return "", &domain.InvariantError{Reason: fmt.Sprintf("token belongs to reader %d", int64(tok.ReaderID))}
	}
	return tok.Target, nil
}

func (e *Engine) withdraw(ctx context.Context, p *play, ref ports.MessageRef) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), withdrawTimeout)
	defer cancel()
	if err := e.transport.Withdraw(ctx, ref); err != nil {
		p.logger.Warn("Failed to withdraw choices", "message_id", ref.ID, "err", err)
	}
}

// fail logs err, shows the generic failure message (best effort) and closes the session.
func (e *Engine) fail(ctx context.Context, p *play, passage string, err error) {
	p.logger.Error("Session aborted", "passage", passage, "err", err)
	if _, perr := e.transport.Present(context.WithoutCancel(ctx), p.reader, domain.FailureMessage()); perr != nil {
		p.logger.Warn("Failed to present failure message", "err", perr)
	}
	e.emitEnd(ctx, p, passage, domain.EndError, err)
}

func (e *Engine) base(p *play, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		SessionID: p.id,
		ReaderID:  p.reader,
	}
}

func (e *Engine) emitStart(ctx context.Context, p *play, passage string) {
	if e.hooks.OnSessionStart != nil {
		e.hooks.OnSessionStart(ctx, &domain.SessionEvent{
			EventBase: e.base(p, domain.EventSessionStart),
			Passage:   passage,
		})
	}
}

func (e *Engine) emitPassage(ctx context.Context, p *play, passage string, tutorial bool, msg domain.Message) {
	if e.hooks.OnPassageEnter != nil {
		e.hooks.OnPassageEnter(ctx, &domain.PassageEvent{
			EventBase: e.base(p, domain.EventPassageEnter),
			Passage:   passage,
			Tutorial:  tutorial,
			Terminal:  msg.Terminal(),
			Choices:   len(msg.Choices),
		})
	}
}

func (e *Engine) emitEnd(ctx context.Context, p *play, passage string, reason domain.EndReason, err error) {
	if e.hooks.OnSessionEnd == nil {
		return
	}
	ev := &domain.SessionEvent{
		EventBase: e.base(p, domain.EventSessionEnd),
		Passage:   passage,
		Reason:    reason,
	}
	if err != nil {
		ev.Err = err.Error()
	}
	e.hooks.OnSessionEnd(ctx, ev)
}
