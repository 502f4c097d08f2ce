package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loanbox/orchestrator/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var (
		file  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo pipelines and applications",
		Long: `Seed inserts the built-in demo pipelines and applications, or the ones
in --file, into the configured store. By default nothing is inserted when
the store already holds pipelines.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			data, err := seed.Default()
			if file != "" {
				f, ferr := os.Open(file)
				if ferr != nil {
					return ferr
				}
				defer f.Close()
				data, err = seed.Decode(f)
			}
			if err != nil {
				return err
			}

			store, err := e.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			seeder := seed.NewSeeder(store, e.logger)
			var res *seed.Result
			if force {
				res, err = seeder.Apply(cmd.Context(), data)
			} else {
				res, err = seeder.ApplyIfEmpty(cmd.Context(), data)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintln(out, "Store already has pipelines, nothing seeded (use --force to insert anyway)")
				return nil
			}
			fmt.Fprintf(out, "Seeded %d pipelines %v and %d applications %v\n",
				len(res.PipelineIDs), res.PipelineIDs, len(res.ApplicationIDs), res.ApplicationIDs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with pipelines and applications")
	cmd.Flags().BoolVar(&force, "force", false, "Insert even when pipelines already exist")
	return cmd
}
