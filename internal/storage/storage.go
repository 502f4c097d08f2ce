// Package storage groups the store implementations behind the ports.Store
// interface: memory for tests and demos, sqldb for SQLite and PostgreSQL.
package storage

import "github.com/loanbox/orchestrator/internal/core/ports"

// Re-export storage interfaces from core/ports so implementations need a
// single import.
type (
	Store            = ports.Store
	ApplicationStore = ports.ApplicationStore
	PipelineStore    = ports.PipelineStore
	RunStore         = ports.RunStore
	ListOptions      = ports.ListOptions
)

// DefaultListLimit applies when ListOptions.Limit is zero.
const DefaultListLimit = 100

// Window returns the [start, end) slice bounds of opts over n items.
func Window(opts ListOptions, n int) (int, int) {
	start := max(opts.Offset, 0)
	if start > n {
		start = n
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	end := min(start+limit, n)
	return start, end
}
