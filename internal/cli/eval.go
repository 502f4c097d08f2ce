package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loanbox/orchestrator/internal/condition"
	"github.com/loanbox/orchestrator/internal/core/domain"
	"github.com/loanbox/orchestrator/internal/pipeline"
	"github.com/loanbox/orchestrator/internal/runtime"
)

func newEvalCmd() *cobra.Command {
	var pipelineFile, applicationFile string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a pipeline file against an application file",
		Long: `Eval runs the steps and terminal rules of a pipeline read from YAML (or
JSON) against an application read the same way. Nothing is persisted; the
step logs, terminal rule logs and final status are printed as JSON.`,
		Example: `  loanctl eval --pipeline pipeline.yaml --application ana.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var p domain.Pipeline
			if err := decodeFile(pipelineFile, &p); err != nil {
				return err
			}
			var app domain.Application
			if err := decodeFile(applicationFile, &app); err != nil {
				return err
			}

			if err := p.Validate(); err != nil {
				return fmt.Errorf("pipeline: %w", err)
			}
			if err := app.Validate(); err != nil {
				return fmt.Errorf("application: %w", err)
			}

			registry := runtime.NewRegistry(e.cfg, e.logger)
			if err := registry.ValidateSteps(p.Steps); err != nil {
				return fmt.Errorf("pipeline: %w", err)
			}
			if e.cfg.Validation.StrictConditions {
				if err := condition.CheckRules(p.TerminalRules); err != nil {
					return fmt.Errorf("pipeline: %w", err)
				}
			}

			outcome, err := pipeline.Evaluate(cmd.Context(), registry, &app, &p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), outcome)
		},
	}

	cmd.Flags().StringVarP(&pipelineFile, "pipeline", "p", "", "Pipeline definition file")
	cmd.Flags().StringVarP(&applicationFile, "application", "a", "", "Application file")
	_ = cmd.MarkFlagRequired("pipeline")
	_ = cmd.MarkFlagRequired("application")
	return cmd
}

// decodeFile reads YAML into v. JSON is valid YAML, so both work.
func decodeFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
