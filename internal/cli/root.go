// Package cli wires configuration, storage, messaging and the HTTP façade
// into the printshop commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/egannguyen/printshop-backend/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

type options struct {
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "printshop",
		Short:         "Order backend for the print shop storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return setupLogger(cmd.ErrOrStderr(), cfg.Log)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a .toml or .yaml config file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newConsumeCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}
