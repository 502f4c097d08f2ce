// Package api exposes the orchestrator over a JSON REST API.
//
// Routes are mounted on a chi router supplied by the server package, so the
// request id, logging, CORS, timeout and recovery middleware apply to all of
// them.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/core/ports"
	"github.com/loanbox/orchestrator/internal/steps"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// RunExecutor executes a stored pipeline against a stored application.
type RunExecutor interface {
	Execute(ctx context.Context, applicationID, pipelineID int64) (*domain.Run, error)
}

// StepCatalog lists the registered steps and validates step configs.
type StepCatalog interface {
	Catalog() []steps.CatalogEntry
	ValidateSteps(configs []domain.StepConfig) error
}

// Handler serves the REST API.
type Handler struct {
	store            ports.Store
	executor         RunExecutor
	catalog          StepCatalog
	metrics          http.Handler
	strictConditions bool
	logger           *slog.Logger

	router chi.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(metrics http.Handler) Option {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// WithStrictConditions rejects pipelines whose terminal rule conditions do
// not parse.
func WithStrictConditions(strict bool) Option {
	return func(h *Handler) {
		h.strictConditions = strict
	}
}

// NewHandler creates the API handler.
func NewHandler(store ports.Store, executor RunExecutor, catalog StepCatalog, opts ...Option) *Handler {
	h := &Handler{
		store:    store,
		executor: executor,
		catalog:  catalog,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.router = chi.NewRouter()
	h.Routes(h.router)
	return h
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/applications", func(r chi.Router) {
			r.Post("/", h.handleCreateApplication)
			r.Get("/", h.handleListApplications)
			r.Get("/{id}", h.handleGetApplication)
		})
		r.Route("/pipelines", func(r chi.Router) {
			r.Post("/", h.handleCreatePipeline)
			r.Get("/", h.handleListPipelines)
			r.Get("/{id}", h.handleGetPipeline)
			r.Put("/{id}", h.handleUpdatePipeline)
		})
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.handleCreateRun)
			r.Get("/", h.handleListRuns)
			r.Get("/{id}", h.handleGetRun)
		})
		r.Get("/steps/catalog", h.handleCatalog)
	})
}

// ServeHTTP serves the API without the server middleware chain.
// Production wiring mounts Routes on the server router instead.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

type bannerResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bannerResponse{Message: "Loan Orchestrator API", Version: Version})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type catalogResponse struct {
	Steps []steps.CatalogEntry `json:"steps"`
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalogResponse{Steps: h.catalog.Catalog()})
}
