// Package runtime wires configuration, storage, steps, the executor and the
// HTTP server into a runnable orchestrator.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loanbox/orchestrator/internal/api"
	"github.com/loanbox/orchestrator/internal/core/ports"
	"github.com/loanbox/orchestrator/internal/metrics"
	"github.com/loanbox/orchestrator/internal/pipeline"
	"github.com/loanbox/orchestrator/internal/pkg/config"
	"github.com/loanbox/orchestrator/internal/pkg/logging"
	"github.com/loanbox/orchestrator/internal/seed"
	"github.com/loanbox/orchestrator/internal/server"
	"github.com/loanbox/orchestrator/internal/steps"
	"github.com/loanbox/orchestrator/internal/telemetry"
)

// Orchestrator runs the loan pipeline service.
type Orchestrator struct {
	// Dependencies (injected via options)
	config     ports.ConfigProvider
	store      ports.Store
	classifier ports.TextClassifier
	logger     *slog.Logger
	level      *slog.LevelVar
	registry   *prometheus.Registry

	// Built by Start
	cfg      *config.Config
	steps    *steps.Registry
	metrics  *metrics.Metrics
	executor *pipeline.Executor
	handler  *api.Handler
	server   *server.Server
	tracer   telemetry.ShutdownFunc

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	done   chan error
}

// New creates an Orchestrator with the given options.
func New(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if o.config == nil {
		return nil, errors.New("config provider required (use WithFileConfig or WithConfigProvider)")
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}
	return o, nil
}

// Build loads configuration and assembles every component except the
// listening server. Start calls it; tests can call it and use Handler.
func (o *Orchestrator) Build(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.build(ctx)
}

func (o *Orchestrator) build(ctx context.Context) error {
	if o.cfg != nil {
		return nil
	}

	cfg, err := o.config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	o.applyLogLevel(cfg)

	o.tracer = telemetry.Noop
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, nil, o.logger)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		o.tracer = shutdown
	}

	if o.store == nil {
		store, err := NewStore(cfg.Storage)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		o.store = store
	}

	if o.classifier != nil {
		o.steps = steps.NewDefaultRegistry(o.classifier,
			steps.WithLogger(o.logger),
			steps.WithDefaultModel(cfg.Classifier.Model))
	} else {
		o.steps = NewRegistry(cfg, o.logger)
	}

	o.metrics = metrics.New(o.registry)
	o.executor = pipeline.NewExecutor(o.store, o.steps,
		pipeline.WithLogger(o.logger),
		pipeline.WithMetrics(o.metrics))

	if cfg.Seed.Enabled {
		data, err := seed.Default()
		if err != nil {
			return err
		}
		if _, err := seed.NewSeeder(o.store, o.logger).ApplyIfEmpty(ctx, data); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	o.handler = api.NewHandler(o.store, o.executor, o.steps,
		api.WithLogger(o.logger),
		api.WithMetricsHandler(o.metrics.Handler()),
		api.WithStrictConditions(cfg.Validation.StrictConditions))

	o.cfg = cfg
	return nil
}

// Handler returns the API with the full middleware chain. Build must have
// succeeded.
func (o *Orchestrator) Handler() http.Handler {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.server == nil {
		o.server = o.newServer()
	}
	return o.server.Router
}

func (o *Orchestrator) newServer() *server.Server {
	srv := server.New(o.cfg.Server.Port, o.logger,
		server.WithCORSOrigins(o.cfg.Server.CORSOrigins),
		server.WithRequestTimeout(o.cfg.Server.RequestTimeout),
		server.WithOperationName(o.cfg.Telemetry.ServiceName))
	o.handler.Routes(srv.Router)
	return srv
}

// Start builds the orchestrator, starts the HTTP server in the background
// and watches the config for changes.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.ctx, o.cancel = context.WithCancel(ctx)

	if err := o.build(o.ctx); err != nil {
		return err
	}
	if o.server == nil {
		o.server = o.newServer()
	}

	o.done = make(chan error, 1)
	go func() {
		o.done <- o.server.Start()
	}()

	if err := o.config.Watch(o.ctx, o.reload); err != nil {
		o.logger.Warn("config watch unavailable", slog.String("error", err.Error()))
	}

	o.logger.Info("orchestrator started",
		slog.Int("port", o.cfg.Server.Port),
		slog.String("storage", o.cfg.Storage.Type),
		slog.Any("steps", o.steps.Types()))

	return nil
}

// Done reports the server's exit. It yields nil after a graceful Shutdown.
func (o *Orchestrator) Done() <-chan error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.done
}

// reload applies the settings that can change without a restart.
// Storage, classifier and server settings require a restart.
func (o *Orchestrator) reload(cfg *config.Config) {
	o.logger.Info("config changed, reloading")
	o.applyLogLevel(cfg)
}

func (o *Orchestrator) applyLogLevel(cfg *config.Config) {
	if o.level == nil {
		return
	}
	level := logging.ParseLevel(cfg.Logging.Level)
	if o.level.Level() != level {
		o.level.Set(level)
		o.logger.Info("log level set", slog.String("level", level.String()))
	}
}

// Shutdown gracefully stops the orchestrator.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.logger.Info("shutting down orchestrator")

	if o.cancel != nil {
		o.cancel()
	}

	var errs []error
	if o.server != nil {
		if err := o.server.Shutdown(ctx); err != nil {
			o.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if o.store != nil {
		if err := o.store.Close(); err != nil {
			o.logger.Error("failed to close storage", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if o.tracer != nil {
		if err := o.tracer(ctx); err != nil {
			o.logger.Error("failed to flush traces", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if err := o.config.Close(); err != nil {
		o.logger.Error("failed to close config", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	o.logger.Info("orchestrator shutdown complete")
	return errors.Join(errs...)
}
