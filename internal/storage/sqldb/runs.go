package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/storage"
)

type runRow struct {
	ID               int64     `db:"id"`
	ApplicationID    int64     `db:"application_id"`
	PipelineID       int64     `db:"pipeline_id"`
	StepLogs         string    `db:"step_logs"`
	TerminalRuleLogs string    `db:"terminal_rule_logs"`
	FinalStatus      string    `db:"final_status"`
	ExecutedAt       time.Time `db:"executed_at"`
}

func (r *runRow) toDomain() (*domain.Run, error) {
	run := &domain.Run{
		ID:            r.ID,
		ApplicationID: r.ApplicationID,
		PipelineID:    r.PipelineID,
		FinalStatus:   domain.FinalStatus(r.FinalStatus),
		ExecutedAt:    r.ExecutedAt,
	}
	if err := json.Unmarshal([]byte(r.StepLogs), &run.StepLogs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal step_logs of run %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.TerminalRuleLogs), &run.TerminalRuleLogs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal terminal_rule_logs of run %d: %w", r.ID, err)
	}
	return run, nil
}

const runColumns = `id, application_id, pipeline_id, step_logs, terminal_rule_logs, final_status, executed_at`

func (s *Store) SaveRun(ctx context.Context, run *domain.Run) error {
	stepLogs, err := json.Marshal(run.StepLogs)
	if err != nil {
		return fmt.Errorf("failed to marshal step_logs: %w", err)
	}
	ruleLogs, err := json.Marshal(run.TerminalRuleLogs)
	if err != nil {
		return fmt.Errorf("failed to marshal terminal_rule_logs: %w", err)
	}
	executedAt := now()

	id, err := s.insert(ctx, `INSERT INTO pipeline_runs
(application_id, pipeline_id, step_logs, terminal_rule_logs, final_status, executed_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		run.ApplicationID, run.PipelineID, string(stepLogs), string(ruleLogs),
		string(run.FinalStatus), executedAt)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	run.ID = id
	run.ExecutedAt = executedAt
	return nil
}

func (s *Store) GetRun(ctx context.Context, id int64) (*domain.Run, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row,
		s.dialect.Rebind(`SELECT `+runColumns+` FROM pipeline_runs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound(fmt.Sprintf("Run %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return row.toDomain()
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*domain.Run, error) {
	limit, offset := limitOffset(opts)

	var rows []runRow
	err := s.db.SelectContext(ctx, &rows,
		s.dialect.Rebind(`SELECT `+runColumns+` FROM pipeline_runs ORDER BY id DESC LIMIT ? OFFSET ?`),
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*domain.Run, 0, len(rows))
	for i := range rows {
		run, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	return result, nil
}
