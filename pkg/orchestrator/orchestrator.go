// Package orchestrator provides the public API for embedding the loan
// pipeline orchestrator.
package orchestrator

import (
	"github.com/loanbox/orchestrator/internal/runtime"
)

// Orchestrator runs the loan pipeline service.
// See internal/runtime.Orchestrator for full documentation.
type Orchestrator = runtime.Orchestrator

// Option is a functional option for configuring an Orchestrator.
type Option = runtime.Option

// New creates a new Orchestrator with the given options.
// Example:
//
//	o, err := orchestrator.New(
//	    orchestrator.WithFileConfig("config.yaml"),
//	    orchestrator.WithSQLite("./data/loans.db"),
//	)
var New = runtime.New

// Configuration options
var (
	// Config sources
	WithFileConfig     = runtime.WithFileConfig
	WithConfigProvider = runtime.WithConfigProvider

	// Storage
	WithSQLite   = runtime.WithSQLite
	WithPostgres = runtime.WithPostgres
	WithStore    = runtime.WithStore

	// Advanced options
	WithClassifier      = runtime.WithClassifier
	WithLogger          = runtime.WithLogger
	WithLevelVar        = runtime.WithLevelVar
	WithMetricsRegistry = runtime.WithMetricsRegistry
)
