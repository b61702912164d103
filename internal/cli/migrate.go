package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), opts.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", db.Dialect())
			return nil
		},
	}
}

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default catalog into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.catalog.Seed(ctx); err != nil {
				return err
			}
			services, err := a.catalog.ListServices(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog has %d services\n", len(services))
			return nil
		},
	}
}
