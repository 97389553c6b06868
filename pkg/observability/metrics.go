package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/storyline/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the storyline collectors.
type Metrics struct {
	SessionsStarted prometheus.Counter
	SessionsEnded   *prometheus.CounterVec
	PassageViews    *prometheus.CounterVec
	Choices         prometheus.Counter
	Timeouts        prometheus.Counter
	SessionDuration prometheus.Histogram
	ActiveSessions  prometheus.Gauge

	mu     sync.Mutex
	starts map[string]time.Time
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storyline_sessions_started_total",
			Help: "Total number of reading sessions started",
		}),
		SessionsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyline_sessions_ended_total",
				Help: "Total number of reading sessions ended, by reason",
			},
			[]string{"reason"},
		),
		PassageViews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storyline_passage_views_total",
				Help: "Total number of passages presented",
			},
			[]string{"passage"},
		),
		Choices: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storyline_choices_total",
			Help: "Total number of choices accepted",
		}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storyline_choice_timeouts_total",
			Help: "Total number of choices that timed out",
		}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storyline_session_duration_seconds",
			Help:    "Duration of reading sessions",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storyline_active_sessions",
			Help: "Number of sessions currently running",
		}),
		starts: make(map[string]time.Time),
	}

	for _, c := range []prometheus.Collector{
		m.SessionsStarted, m.SessionsEnded, m.PassageViews, m.Choices,
		m.Timeouts, m.SessionDuration, m.ActiveSessions,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(_ context.Context, e *domain.SessionEvent) {
			m.SessionsStarted.Inc()
			m.ActiveSessions.Inc()
			m.mu.Lock()
			m.starts[e.SessionID] = e.Timestamp
			m.mu.Unlock()
		},
		OnPassageEnter: func(_ context.Context, e *domain.PassageEvent) {
			name := e.Passage
			if e.Tutorial {
				name = "(tutorial)"
			}
			m.PassageViews.WithLabelValues(name).Inc()
		},
		OnChoice: func(_ context.Context, _ *domain.ChoiceEvent) {
			m.Choices.Inc()
		},
		OnTimeout: func(_ context.Context, _ *domain.SessionEvent) {
			m.Timeouts.Inc()
		},
		OnSessionEnd: func(_ context.Context, e *domain.SessionEvent) {
			m.SessionsEnded.WithLabelValues(string(e.Reason)).Inc()

			m.mu.Lock()
			start, ok := m.starts[e.SessionID]
			delete(m.starts, e.SessionID)
			m.mu.Unlock()

			// Sessions that fail before starting never incremented the gauge.
			if ok {
				m.ActiveSessions.Dec()
				m.SessionDuration.Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
	}
}
