// Package seed loads the demo pipelines and applications shipped with the
// orchestrator.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/core/ports"
)

//go:embed default.yaml
var defaultData []byte

// Data is a set of pipelines and applications to insert.
type Data struct {
	Pipelines    []*domain.Pipeline    `yaml:"pipelines"`
	Applications []*domain.Application `yaml:"applications"`
}

// Result holds the ids assigned by the store, in input order.
type Result struct {
	PipelineIDs    []int64
	ApplicationIDs []int64
	Skipped        bool
}

// Default returns the embedded demo data.
func Default() (*Data, error) {
	return Decode(bytes.NewReader(defaultData))
}

// Decode reads seed data from YAML and validates it.
func Decode(r io.Reader) (*Data, error) {
	var d Data
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}
	for _, p := range d.Pipelines {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
	}
	for _, a := range d.Applications {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("application %q: %w", a.ApplicantName, err)
		}
	}
	return &d, nil
}

// Seeder inserts seed data into a store.
type Seeder struct {
	store  ports.Store
	logger *slog.Logger
}

// NewSeeder creates a Seeder. A nil logger uses slog.Default.
func NewSeeder(store ports.Store, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: store, logger: logger}
}

// Apply inserts every pipeline and application in d. Applications are
// inserted with status PENDING.
func (s *Seeder) Apply(ctx context.Context, d *Data) (*Result, error) {
	res := &Result{}
	for _, src := range d.Pipelines {
		p := *src
		if err := s.store.CreatePipeline(ctx, &p); err != nil {
			return res, fmt.Errorf("create pipeline %q: %w", p.Name, err)
		}
		res.PipelineIDs = append(res.PipelineIDs, p.ID)
		s.logger.Info("seeded pipeline", slog.Int64("id", p.ID), slog.String("name", p.Name))
	}
	for _, src := range d.Applications {
		a := *src
		a.Status = domain.StatusPending
		if err := s.store.CreateApplication(ctx, &a); err != nil {
			return res, fmt.Errorf("create application %q: %w", a.ApplicantName, err)
		}
		res.ApplicationIDs = append(res.ApplicationIDs, a.ID)
		s.logger.Info("seeded application", slog.Int64("id", a.ID), slog.String("applicant", a.ApplicantName))
	}
	return res, nil
}

// ApplyIfEmpty applies d only when the store holds no pipelines, so restarts
// do not duplicate demo data.
func (s *Seeder) ApplyIfEmpty(ctx context.Context, d *Data) (*Result, error) {
	existing, err := s.store.ListPipelines(ctx, ports.ListOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("check existing pipelines: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debug("store already has pipelines, skipping seed")
		return &Result{Skipped: true}, nil
	}
	return s.Apply(ctx, d)
}
