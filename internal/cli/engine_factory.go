package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/storyline/internal/config"
	"github.com/aretw0/storyline/internal/runtime"
	"github.com/aretw0/storyline/pkg/adapters/mqtt"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/observability"
	"github.com/aretw0/storyline/pkg/persistence/middleware"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/aretw0/storyline/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App holds everything a command needs to run sessions: the parsed story,
// the progress store behind a session manager, and the lifecycle hooks.
type App struct {
	Config   *config.Config
	Story    *domain.Story
	Logger   *slog.Logger
	Sessions *session.Manager
	Registry *prometheus.Registry
	Hooks    domain.LifecycleHooks

	closers []func() error
}

// Open loads the story, opens the configured store and wires the hooks.
// The caller must Close the App.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	story, err := LoadStory(cfg.StoryFile)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Story: story, Logger: logger, Registry: prometheus.NewRegistry()}
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, locker, closeStore, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	storeMetrics, err := middleware.NewMetricsMiddleware(app.Registry)
	if err != nil {
		app.Close()
		return nil, err
	}
	store = middleware.Chain(store, storeMetrics, middleware.NewTracingMiddleware(nil))

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if cfg.Locking {
		if locker != nil {
			sessionOpts = append(sessionOpts, session.WithLocker(locker))
		} else {
			logger.Info("Store driver has no distributed lock, locking within this process only", "driver", cfg.Store.Driver)
		}
	}
	app.Sessions = session.NewManager(store, sessionOpts...)

	if err := app.wireHooks(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wireHooks() error {
	metrics, err := observability.NewMetrics(a.Registry)
	if err != nil {
		return err
	}
	hooks := []domain.LifecycleHooks{metrics.Hooks(), observability.LogHooks(a.Logger)}

	if broker := a.Config.MQTT.Broker; broker != "" {
		client, err := mqtt.Connect(broker, a.Config.MQTT.ClientID)
		if err != nil {
			return err
		}
		pub := mqtt.NewPublisher(client, a.Config.MQTT.Topic, mqtt.WithLogger(a.Logger))
		hooks = append(hooks, pub.Hooks())
		a.closers = append(a.closers, func() error {
			pub.Flush()
			client.Disconnect(250)
			return nil
		})
		a.Logger.Info("Publishing lifecycle events", "broker", broker, "topic", a.Config.MQTT.Topic)
	}

	a.Hooks = domain.ChainHooks(hooks...)
	return nil
}

// Store returns the progress store as seen by sessions.
func (a *App) Store() ports.ProgressStore {
	return a.Sessions
}

// NewEngine creates an engine presenting through transport.
func (a *App) NewEngine(transport ports.Transport) *runtime.Engine {
	return runtime.NewEngine(a.Story, a.Sessions, transport,
		runtime.WithLogger(a.Logger),
		runtime.WithLifecycleHooks(a.Hooks),
		runtime.WithChoiceTimeout(a.Config.Timeout),
	)
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
