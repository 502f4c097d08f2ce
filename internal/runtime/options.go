package runtime

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loanbox/orchestrator/internal/adapters/config/file"
	"github.com/loanbox/orchestrator/internal/core/ports"
	"github.com/loanbox/orchestrator/internal/storage/sqldb"
)

// Option is a functional option for configuring an Orchestrator.
type Option func(*Orchestrator) error

// WithFileConfig uses file-based configuration with hot-reload (default).
// The path should point to a config.yaml file that will be watched for changes.
func WithFileConfig(path string) Option {
	return func(o *Orchestrator) error {
		provider, err := file.NewProvider(path, file.WithLogger(o.logger))
		if err != nil {
			return fmt.Errorf("create file config provider: %w", err)
		}
		o.config = provider
		return nil
	}
}

// WithConfigProvider sets a custom config provider.
func WithConfigProvider(provider ports.ConfigProvider) Option {
	return func(o *Orchestrator) error {
		o.config = provider
		return nil
	}
}

// WithSQLite overrides storage.type with a SQLite database at path.
func WithSQLite(path string) Option {
	return func(o *Orchestrator) error {
		store, err := sqldb.NewSQLite(path)
		if err != nil {
			return fmt.Errorf("create sqlite storage: %w", err)
		}
		o.store = store
		return nil
	}
}

// WithPostgres overrides storage.type with a PostgreSQL database.
func WithPostgres(dsn string) Option {
	return func(o *Orchestrator) error {
		store, err := sqldb.New(sqldb.Config{Driver: "pgx", DSN: dsn})
		if err != nil {
			return fmt.Errorf("create postgres storage: %w", err)
		}
		o.store = store
		return nil
	}
}

// WithStore sets a custom store. The orchestrator closes it on Shutdown.
func WithStore(store ports.Store) Option {
	return func(o *Orchestrator) error {
		o.store = store
		return nil
	}
}

// WithClassifier sets the sentiment classifier instead of building one from
// configuration.
func WithClassifier(classifier ports.TextClassifier) Option {
	return func(o *Orchestrator) error {
		o.classifier = classifier
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		o.logger = logger
		return nil
	}
}

// WithLevelVar lets config reloads change the log level of the logger
// passed to WithLogger.
func WithLevelVar(level *slog.LevelVar) Option {
	return func(o *Orchestrator) error {
		o.level = level
		return nil
	}
}

// WithMetricsRegistry registers collectors on reg instead of a private registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(o *Orchestrator) error {
		o.registry = reg
		return nil
	}
}
