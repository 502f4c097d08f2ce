package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/loanbox/orchestrator/internal/pipeline"
	"github.com/loanbox/orchestrator/internal/runtime"
)

func newRunCmd() *cobra.Command {
	var applicationID, pipelineID int64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a stored pipeline against a stored application",
		Long: `Run executes the pipeline against the application, persists the run and
updates the application's status, exactly as POST /api/runs does. The run
record is printed as JSON.`,
		Example: `  loanctl run --application 1 --pipeline 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if applicationID <= 0 || pipelineID <= 0 {
				return errors.New("--application and --pipeline must be positive ids")
			}
			e, err := loadEnv(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			store, err := e.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			exec := pipeline.NewExecutor(store, runtime.NewRegistry(e.cfg, e.logger),
				pipeline.WithLogger(e.logger))
			run, err := exec.Execute(cmd.Context(), applicationID, pipelineID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), run)
		},
	}

	cmd.Flags().Int64VarP(&applicationID, "application", "a", 0, "Application id")
	cmd.Flags().Int64VarP(&pipelineID, "pipeline", "p", 0, "Pipeline id")
	return cmd
}
