package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/storage"
)

type pipelineRow struct {
	ID            int64     `db:"id"`
	Name          string    `db:"name"`
	Description   *string   `db:"description"`
	StepsConfig   string    `db:"steps_config"`
	TerminalRules string    `db:"terminal_rules"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *pipelineRow) toDomain() (*domain.Pipeline, error) {
	p := &domain.Pipeline{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.StepsConfig), &p.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps_config of pipeline %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.TerminalRules), &p.TerminalRules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal terminal_rules of pipeline %d: %w", r.ID, err)
	}
	return p, nil
}

const pipelineColumns = `id, name, description, steps_config, terminal_rules, created_at`

func marshalPipeline(p *domain.Pipeline) (string, string, error) {
	steps, err := json.Marshal(p.Steps)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal steps_config: %w", err)
	}
	rules, err := json.Marshal(p.TerminalRules)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal terminal_rules: %w", err)
	}
	return string(steps), string(rules), nil
}

func (s *Store) CreatePipeline(ctx context.Context, p *domain.Pipeline) error {
	steps, rules, err := marshalPipeline(p)
	if err != nil {
		return err
	}
	p.CreatedAt = now()

	id, err := s.insert(ctx, `INSERT INTO pipelines (name, description, steps_config, terminal_rules, created_at)
VALUES (?, ?, ?, ?, ?)`, p.Name, p.Description, steps, rules, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	p.ID = id
	return nil
}

func (s *Store) GetPipeline(ctx context.Context, id int64) (*domain.Pipeline, error) {
	return s.getPipeline(ctx, s.db, id)
}

func (s *Store) getPipeline(ctx context.Context, q sqlx.QueryerContext, id int64) (*domain.Pipeline, error) {
	var row pipelineRow
	err := sqlx.GetContext(ctx, q, &row,
		s.dialect.Rebind(`SELECT `+pipelineColumns+` FROM pipelines WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound(fmt.Sprintf("Pipeline %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline: %w", err)
	}
	return row.toDomain()
}

func (s *Store) ListPipelines(ctx context.Context, opts storage.ListOptions) ([]*domain.Pipeline, error) {
	limit, offset := limitOffset(opts)

	var rows []pipelineRow
	err := s.db.SelectContext(ctx, &rows,
		s.dialect.Rebind(`SELECT `+pipelineColumns+` FROM pipelines ORDER BY id LIMIT ? OFFSET ?`),
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}

	result := make([]*domain.Pipeline, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

// UpdatePipeline applies update inside a transaction so concurrent partial
// updates never interleave.
func (s *Store) UpdatePipeline(ctx context.Context, id int64, update *domain.PipelineUpdate) (*domain.Pipeline, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := s.getPipeline(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	update.Apply(p)

	steps, rules, err := marshalPipeline(p)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, s.dialect.Rebind(`UPDATE pipelines
SET name = ?, description = ?, steps_config = ?, terminal_rules = ? WHERE id = ?`),
		p.Name, p.Description, steps, rules, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update pipeline: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pipeline update: %w", err)
	}
	return p, nil
}
