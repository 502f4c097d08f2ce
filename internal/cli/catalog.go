package cli

import (
	"github.com/spf13/cobra"

	"github.com/loanbox/orchestrator/internal/runtime"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List step types and their default params",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), runtime.NewRegistry(e.cfg, e.logger).Catalog())
		},
	}
}
