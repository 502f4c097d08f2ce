// Package cli implements loanctl, the offline companion to the orchestrator
// server.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/loanbox/orchestrator/internal/api"
	"github.com/loanbox/orchestrator/internal/core/ports"
	"github.com/loanbox/orchestrator/internal/pkg/config"
	"github.com/loanbox/orchestrator/internal/pkg/logging"
	"github.com/loanbox/orchestrator/internal/runtime"
)

var configPathFlag string

// NewRootCmd builds the loanctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "loanctl",
		Short: "Inspect and run loan decision pipelines",
		Long: `loanctl works directly against the orchestrator's configured store.

It can seed the demo data, execute a stored pipeline against a stored
application, evaluate pipeline files without touching storage, and list
the step catalog.`,
		Version:       api.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPathFlag, "config", "c", config.DefaultPath, "Path to config.yaml")

	root.AddCommand(newSeedCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newEvalCmd())
	root.AddCommand(newCatalogCmd())
	return root
}

// Execute runs loanctl and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env holds the loaded config and a logger writing to stderr.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func loadEnv(stderr io.Writer) (*env, error) {
	cfg, err := config.LoadFile(configPathFlag)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, _ := logging.New(cfg.Logging, stderr)
	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) openStore() (ports.Store, error) {
	return runtime.NewStore(e.cfg.Storage)
}
