package middleware

import (
	"context"
	"errors"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/storyline/pkg/persistence/middleware"

type tracingMiddleware struct {
	next   ports.ProgressStore
	tracer trace.Tracer
}

// NewTracingMiddleware opens a span per store call. A nil tracer uses the
// global provider.
func NewTracingMiddleware(tracer trace.Tracer) Middleware {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return func(next ports.ProgressStore) ports.ProgressStore {
		return &tracingMiddleware{next: next, tracer: tracer}
	}
}

func (m *tracingMiddleware) start(ctx context.Context, op string, readerID domain.ReaderID) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("storyline.store.op", op)}
	if readerID != 0 {
		attrs = append(attrs, attribute.Int64("storyline.reader_id", int64(readerID)))
	}
	return m.tracer.Start(ctx, "storyline.store."+op, trace.WithAttributes(attrs...))
}

func end(span trace.Span, err error) {
	// A missing row is an expected answer, not a failure.
	if err != nil && !errors.Is(err, domain.ErrProgressNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (m *tracingMiddleware) Get(ctx context.Context, readerID domain.ReaderID) (string, error) {
	ctx, span := m.start(ctx, "get", readerID)
	passage, err := m.next.Get(ctx, readerID)
	end(span, err)
	return passage, err
}

func (m *tracingMiddleware) Set(ctx context.Context, readerID domain.ReaderID, passage string) error {
	ctx, span := m.start(ctx, "set", readerID)
	span.SetAttributes(attribute.String("storyline.passage", passage))
	err := m.next.Set(ctx, readerID, passage)
	end(span, err)
	return err
}

func (m *tracingMiddleware) List(ctx context.Context) ([]domain.ReaderProgress, error) {
	lister, ok := m.next.(ports.ProgressLister)
	if !ok {
		return nil, ports.ErrListUnsupported
	}
	ctx, span := m.start(ctx, "list", 0)
	rows, err := lister.List(ctx)
	end(span, err)
	return rows, err
}
