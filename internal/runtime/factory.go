package runtime

import (
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/loanbox/orchestrator/internal/classifier/openai"
	"github.com/loanbox/orchestrator/internal/core/ports"
	"github.com/loanbox/orchestrator/internal/pkg/config"
	"github.com/loanbox/orchestrator/internal/steps"
	"github.com/loanbox/orchestrator/internal/storage/memory"
	"github.com/loanbox/orchestrator/internal/storage/sqldb"
)

// NewStore opens the store selected by storage.type.
func NewStore(cfg config.StorageConfig) (ports.Store, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqldb.NewSQLite(cfg.SQLite.Path)
	case "postgres":
		driver := cfg.Database.Driver
		if driver == "" {
			driver = "pgx"
		}
		return sqldb.New(sqldb.Config{Driver: driver, DSN: cfg.Database.DSN})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// NewClassifier returns the LLM classifier used by sentiment_check, or nil
// when it is disabled or no API key is configured. A nil classifier makes
// sentiment_check use keyword matching.
func NewClassifier(cfg config.ClassifierConfig, logger *slog.Logger) ports.TextClassifier {
	if !cfg.Enabled {
		return nil
	}
	if cfg.APIKey == "" {
		logger.Warn("classifier enabled but no API key configured, using keyword matching")
		return nil
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	client := openai.NewClient(cfg.APIKey,
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithHTTPClient(httpClient),
	)

	logger.Info("classifier configured",
		slog.String("model", cfg.Model),
		slog.String("api_key", maskKey(cfg.APIKey)))

	return openai.NewClassifier(client,
		openai.WithMaxPurposeTokens(cfg.MaxPurposeTokens),
		openai.WithLogger(logger),
	)
}

// NewRegistry builds the step registry for cfg.
func NewRegistry(cfg *config.Config, logger *slog.Logger) *steps.Registry {
	return steps.NewDefaultRegistry(NewClassifier(cfg.Classifier, logger),
		steps.WithLogger(logger),
		steps.WithDefaultModel(cfg.Classifier.Model),
	)
}

func maskKey(key string) string {
	if len(key) <= 14 {
		return "***"
	}
	return key[:10] + "..." + key[len(key)-4:]
}
