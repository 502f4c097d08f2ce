package ports

import (
	"context"

	"github.com/loanbox/orchestrator/internal/core/domain"
)

// ListOptions defines pagination for list operations.
type ListOptions struct {
	Offset int
	Limit  int
}

// ApplicationStore persists loan applications.
type ApplicationStore interface {
	// CreateApplication stores app and assigns its ID and CreatedAt.
	CreateApplication(ctx context.Context, app *domain.Application) error

	// GetApplication returns a not found error when id is unknown.
	GetApplication(ctx context.Context, id int64) (*domain.Application, error)

	// ListApplications lists applications ordered by id.
	ListApplications(ctx context.Context, opts ListOptions) ([]*domain.Application, error)

	// UpdateApplicationStatus overwrites the status of an application.
	UpdateApplicationStatus(ctx context.Context, id int64, status domain.FinalStatus) error
}

// PipelineStore persists pipeline definitions.
type PipelineStore interface {
	CreatePipeline(ctx context.Context, p *domain.Pipeline) error
	GetPipeline(ctx context.Context, id int64) (*domain.Pipeline, error)
	ListPipelines(ctx context.Context, opts ListOptions) ([]*domain.Pipeline, error)
	UpdatePipeline(ctx context.Context, id int64, update *domain.PipelineUpdate) (*domain.Pipeline, error)
}

// RunStore persists run records. Runs are append-only.
type RunStore interface {
	// SaveRun assigns the run ID and ExecutedAt.
	SaveRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, id int64) (*domain.Run, error)
	// ListRuns lists runs newest first.
	ListRuns(ctx context.Context, opts ListOptions) ([]*domain.Run, error)
}

// Store groups every store the orchestrator needs.
// Implementations: memory, SQLite, PostgreSQL.
type Store interface {
	ApplicationStore
	PipelineStore
	RunStore

	Close() error
}
