// Package memory provides an in-process Store used by tests, the CLI and
// demo deployments.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/storage"
)

// Store is an in-memory implementation of storage.Store. Every value handed
// in or out is a deep copy, so callers cannot mutate stored records.
type Store struct {
	mu           sync.RWMutex
	applications map[int64]*domain.Application
	pipelines    map[int64]*domain.Pipeline
	runs         map[int64]*domain.Run

	nextApplicationID int64
	nextPipelineID    int64
	nextRunID         int64

	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New creates a new in-memory store
func New() *Store {
	return &Store{
		applications: make(map[int64]*domain.Application),
		pipelines:    make(map[int64]*domain.Pipeline),
		runs:         make(map[int64]*domain.Run),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreateApplication(ctx context.Context, app *domain.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextApplicationID++
	app.ID = s.nextApplicationID
	if app.Status == "" {
		app.Status = domain.StatusPending
	}
	app.CreatedAt = s.now()

	stored := *app
	s.applications[app.ID] = &stored
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id int64) (*domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return nil, domain.ErrNotFound(fmt.Sprintf("Application %d not found", id))
	}
	out := *app
	return &out, nil
}

func (s *Store) ListApplications(ctx context.Context, opts storage.ListOptions) ([]*domain.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end := storage.Window(opts, int(s.nextApplicationID))
	result := make([]*domain.Application, 0, end-start)
	for id := int64(start + 1); id <= int64(end); id++ {
		if app, ok := s.applications[id]; ok {
			out := *app
			result = append(result, &out)
		}
	}
	return result, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id int64, status domain.FinalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return domain.ErrNotFound(fmt.Sprintf("Application %d not found", id))
	}
	app.Status = status
	return nil
}

func (s *Store) CreatePipeline(ctx context.Context, p *domain.Pipeline) error {
	stored, err := clonePipeline(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPipelineID++
	p.ID = s.nextPipelineID
	p.CreatedAt = s.now()
	stored.ID, stored.CreatedAt = p.ID, p.CreatedAt
	s.pipelines[p.ID] = stored
	return nil
}

func (s *Store) GetPipeline(ctx context.Context, id int64) (*domain.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pipelines[id]
	if !ok {
		return nil, domain.ErrNotFound(fmt.Sprintf("Pipeline %d not found", id))
	}
	return clonePipeline(p)
}

func (s *Store) ListPipelines(ctx context.Context, opts storage.ListOptions) ([]*domain.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end := storage.Window(opts, int(s.nextPipelineID))
	result := make([]*domain.Pipeline, 0, end-start)
	for id := int64(start + 1); id <= int64(end); id++ {
		p, ok := s.pipelines[id]
		if !ok {
			continue
		}
		out, err := clonePipeline(p)
		if err != nil {
			return nil, err
		}
		result = append(result, out)
	}
	return result, nil
}

func (s *Store) UpdatePipeline(ctx context.Context, id int64, update *domain.PipelineUpdate) (*domain.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pipelines[id]
	if !ok {
		return nil, domain.ErrNotFound(fmt.Sprintf("Pipeline %d not found", id))
	}
	updated, err := clonePipeline(p)
	if err != nil {
		return nil, err
	}
	update.Apply(updated)
	stored, err := clonePipeline(updated)
	if err != nil {
		return nil, err
	}
	s.pipelines[id] = stored
	return updated, nil
}

func (s *Store) SaveRun(ctx context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRunID++
	run.ID = s.nextRunID
	run.ExecutedAt = s.now()

	stored, err := cloneRun(run)
	if err != nil {
		s.nextRunID--
		return err
	}
	s.runs[run.ID] = stored
	return nil
}

func (s *Store) GetRun(ctx context.Context, id int64) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound(fmt.Sprintf("Run %d not found", id))
	}
	return cloneRun(run)
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := int(s.nextRunID)
	start, end := storage.Window(opts, n)
	result := make([]*domain.Run, 0, end-start)
	for i := start; i < end; i++ {
		run, ok := s.runs[int64(n-i)]
		if !ok {
			continue
		}
		out, err := cloneRun(run)
		if err != nil {
			return nil, err
		}
		result = append(result, out)
	}
	return result, nil
}

func (s *Store) Close() error {
	return nil
}

// clonePipeline deep-copies through JSON so params maps are never shared.
func clonePipeline(p *domain.Pipeline) (*domain.Pipeline, error) {
	var out domain.Pipeline
	if err := roundTrip(p, &out); err != nil {
		return nil, fmt.Errorf("copy pipeline: %w", err)
	}
	return &out, nil
}

func cloneRun(run *domain.Run) (*domain.Run, error) {
	var out domain.Run
	if err := roundTrip(run, &out); err != nil {
		return nil, fmt.Errorf("copy run: %w", err)
	}
	return &out, nil
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
