// Package sqldb implements storage.Store over database/sql through sqlx.
// SQLite (modernc.org/sqlite) and PostgreSQL (pgx) are supported.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/storage"
	"github.com/loanbox/orchestrator/internal/storage/dialect"
)

// Store is a SQL implementation of storage.Store that supports multiple
// database dialects.
type Store struct {
	db      *sqlx.DB
	dialect dialect.Dialect
}

var _ storage.Store = (*Store)(nil)

// Config holds database connection configuration
type Config struct {
	Driver string // Driver name: sqlite, postgres
	DSN    string // Data source name / connection string
}

// New creates a new SQL store with the specified configuration.
func New(cfg Config) (*Store, error) {
	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver: %w", err)
	}

	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range d.PragmaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	store := &Store{db: db, dialect: d}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSQLite creates a new SQLite store.
func NewSQLite(dsn string) (*Store, error) {
	return New(Config{Driver: "sqlite", DSN: dsn})
}

// DB returns the underlying sqlx.DB for advanced operations
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Dialect returns the dialect being used
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

func (s *Store) initSchema() error {
	d := s.dialect
	statements := []string{
		`CREATE TABLE IF NOT EXISTS applications (
id ` + d.AutoIncrementClause() + `,
applicant_name TEXT NOT NULL,
amount ` + d.BigIntType() + ` NOT NULL,
monthly_income ` + d.BigIntType() + ` NOT NULL,
declared_debts ` + d.BigIntType() + ` NOT NULL DEFAULT 0,
country TEXT NOT NULL,
loan_purpose ` + d.TextType() + ` NOT NULL,
status TEXT NOT NULL,
created_at ` + d.TimestampType() + ` NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS pipelines (
id ` + d.AutoIncrementClause() + `,
name TEXT NOT NULL,
steps_config ` + d.TextType() + ` NOT NULL,
terminal_rules ` + d.TextType() + ` NOT NULL,
created_at ` + d.TimestampType() + ` NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
id ` + d.AutoIncrementClause() + `,
application_id ` + d.BigIntType() + ` NOT NULL REFERENCES applications(id),
pipeline_id ` + d.BigIntType() + ` NOT NULL REFERENCES pipelines(id),
step_logs ` + d.TextType() + ` NOT NULL,
terminal_rule_logs ` + d.TextType() + ` NOT NULL,
final_status TEXT NOT NULL,
executed_at ` + d.TimestampType() + ` NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_pipeline_runs_application ON pipeline_runs(application_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pipeline_runs_pipeline ON pipeline_runs(pipeline_id)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return s.runMigrations()
}

// runMigrations adds columns introduced after the first schema version.
func (s *Store) runMigrations() error {
	migrations := []struct {
		table  string
		column string
		ddl    string
	}{
		{"pipelines", "description", "ALTER TABLE pipelines ADD COLUMN description " + s.dialect.TextType()},
	}

	for _, m := range migrations {
		exists, err := s.columnExists(m.table, m.column)
		if err != nil {
			return fmt.Errorf("failed to check column %s.%s: %w", m.table, m.column, err)
		}
		if !exists {
			if _, err := s.db.Exec(m.ddl); err != nil {
				return fmt.Errorf("failed to add column %s.%s: %w", m.table, m.column, err)
			}
		}
	}

	return nil
}

func (s *Store) columnExists(table, column string) (bool, error) {
	var count int
	if err := s.db.QueryRow(s.dialect.ColumnExistsQuery(), table, column).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// insert runs an INSERT ... RETURNING id statement.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := s.db.QueryRowxContext(ctx, s.dialect.Rebind(query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

func limitOffset(opts storage.ListOptions) (int, int) {
	limit := opts.Limit
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}
	return limit, max(opts.Offset, 0)
}

func now() time.Time {
	return time.Now().UTC()
}

type applicationRow struct {
	ID            int64     `db:"id"`
	ApplicantName string    `db:"applicant_name"`
	Amount        int64     `db:"amount"`
	MonthlyIncome int64     `db:"monthly_income"`
	DeclaredDebts int64     `db:"declared_debts"`
	Country       string    `db:"country"`
	LoanPurpose   string    `db:"loan_purpose"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *applicationRow) toDomain() *domain.Application {
	return &domain.Application{
		ID:            r.ID,
		ApplicantName: r.ApplicantName,
		Amount:        r.Amount,
		MonthlyIncome: r.MonthlyIncome,
		DeclaredDebts: r.DeclaredDebts,
		Country:       r.Country,
		LoanPurpose:   r.LoanPurpose,
		Status:        domain.FinalStatus(r.Status),
		CreatedAt:     r.CreatedAt,
	}
}

const applicationColumns = `id, applicant_name, amount, monthly_income, declared_debts, country, loan_purpose, status, created_at`

func (s *Store) CreateApplication(ctx context.Context, app *domain.Application) error {
	if app.Status == "" {
		app.Status = domain.StatusPending
	}
	app.CreatedAt = now()

	id, err := s.insert(ctx, `INSERT INTO applications
(applicant_name, amount, monthly_income, declared_debts, country, loan_purpose, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ApplicantName, app.Amount, app.MonthlyIncome, app.DeclaredDebts,
		app.Country, app.LoanPurpose, string(app.Status), app.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	app.ID = id
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id int64) (*domain.Application, error) {
	var row applicationRow
	err := s.db.GetContext(ctx, &row,
		s.dialect.Rebind(`SELECT `+applicationColumns+` FROM applications WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound(fmt.Sprintf("Application %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListApplications(ctx context.Context, opts storage.ListOptions) ([]*domain.Application, error) {
	limit, offset := limitOffset(opts)

	var rows []applicationRow
	err := s.db.SelectContext(ctx, &rows,
		s.dialect.Rebind(`SELECT `+applicationColumns+` FROM applications ORDER BY id LIMIT ? OFFSET ?`),
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	result := make([]*domain.Application, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toDomain())
	}
	return result, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id int64, status domain.FinalStatus) error {
	res, err := s.db.ExecContext(ctx,
		s.dialect.Rebind(`UPDATE applications SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound(fmt.Sprintf("Application %d not found", id))
	}
	return nil
}
