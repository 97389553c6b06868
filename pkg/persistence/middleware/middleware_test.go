package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/persistence/middleware"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// getSetStore is a ProgressStore that cannot list and fails on demand.
type getSetStore struct {
	err error
}

func (s *getSetStore) Get(ctx context.Context, readerID domain.ReaderID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "", domain.ErrProgressNotFound
}

func (s *getSetStore) Set(ctx context.Context, readerID domain.ReaderID, passage string) error {
	return s.err
}

func newChain(t *testing.T, next ports.ProgressStore) (ports.ProgressStore, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := middleware.NewMetricsMiddleware(reg)
	require.NoError(t, err)
	tracing := middleware.NewTracingMiddleware(noop.NewTracerProvider().Tracer("test"))
	return middleware.Chain(next, metrics, tracing), reg
}

func TestChain_Contract(t *testing.T) {
	store, _ := newChain(t, memory.NewStore())
	ports.RunProgressStoreContract(t, store)
}

func TestChain_Order(t *testing.T) {
	var calls []string
	mw := func(name string) middleware.Middleware {
		return func(next ports.ProgressStore) ports.ProgressStore {
			calls = append(calls, name)
			return next
		}
	}
	middleware.Chain(memory.NewStore(), mw("outer"), mw("inner"))
	assert.Equal(t, []string{"inner", "outer"}, calls)
}

func TestMetricsMiddleware_Results(t *testing.T) {
	ctx := context.Background()
	store, reg := newChain(t, memory.NewStore())

	_, err := store.Get(ctx, 1)
	require.ErrorIs(t, err, domain.ErrProgressNotFound)
	require.NoError(t, store.Set(ctx, 1, "Start"))
	_, err = store.Get(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, testutil.CollectAndCount(reg, "storyline_store_operation_duration_seconds"))

	failing, reg := newChain(t, &getSetStore{err: errors.New("down")})
	assert.Error(t, failing.Set(ctx, 1, "Start"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "storyline_store_operation_duration_seconds"))
}

func TestMetricsMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := middleware.NewMetricsMiddleware(reg)
	require.NoError(t, err)
	_, err = middleware.NewMetricsMiddleware(reg)
	assert.Error(t, err)
}

func TestList_Unsupported(t *testing.T) {
	store, _ := newChain(t, &getSetStore{})
	lister, ok := store.(ports.ProgressLister)
	require.True(t, ok)
	_, err := lister.List(context.Background())
	assert.ErrorIs(t, err, ports.ErrListUnsupported)
}

func TestErrorsPassThrough(t *testing.T) {
	boom := errors.New("boom")
	store, _ := newChain(t, &getSetStore{err: boom})

	_, err := store.Get(context.Background(), 9)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.Set(context.Background(), 9, "Cave"), boom)
}
