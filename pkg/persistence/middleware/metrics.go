package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Operation results recorded by the metrics middleware.
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

type metricsMiddleware struct {
	next     ports.ProgressStore
	duration *prometheus.HistogramVec
}

// NewMetricsMiddleware records the latency and outcome of every store call in
// storyline_store_operation_duration_seconds{op,result}.
func NewMetricsMiddleware(reg prometheus.Registerer) (Middleware, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storyline_store_operation_duration_seconds",
		Help:    "Latency of progress store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "result"})
	if err := reg.Register(duration); err != nil {
		return nil, err
	}
	return func(next ports.ProgressStore) ports.ProgressStore {
		return &metricsMiddleware{next: next, duration: duration}
	}, nil
}

func (m *metricsMiddleware) observe(op string, start time.Time, err error) {
	result := resultOK
	switch {
	case errors.Is(err, domain.ErrProgressNotFound):
		result = resultNotFound
	case err != nil:
		result = resultError
	}
	m.duration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}

func (m *metricsMiddleware) Get(ctx context.Context, readerID domain.ReaderID) (string, error) {
	start := time.Now()
	passage, err := m.next.Get(ctx, readerID)
	m.observe("get", start, err)
	return passage, err
}

func (m *metricsMiddleware) Set(ctx context.Context, readerID domain.ReaderID, passage string) error {
	start := time.Now()
	err := m.next.Set(ctx, readerID, passage)
	m.observe("set", start, err)
	return err
}

func (m *metricsMiddleware) List(ctx context.Context) ([]domain.ReaderProgress, error) {
	lister, ok := m.next.(ports.ProgressLister)
	if !ok {
		return nil, ports.ErrListUnsupported
	}
	start := time.Now()
	rows, err := lister.List(ctx)
	m.observe("list", start, err)
	return rows, err
}
