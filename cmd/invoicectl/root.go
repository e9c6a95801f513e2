package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukerupert/gymdesk/internal"
	"github.com/dukerupert/gymdesk/internal/bootstrap"
	"github.com/spf13/cobra"
)

var version = "dev"

// cli carries what every subcommand needs once the root has loaded config.
type cli struct {
	cfg    *internal.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "invoicectl",
		Short: "Operate the gym invoice pipeline",
		Long: `invoicectl runs migrations and inspects, renders and resends invoices
against the database and providers configured for the server.

It reads the same environment variables (and .env file) as the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.NewConfig()
			if err != nil {
				return fmt.Errorf("config initialization failed: %w", err)
			}
			c.cfg = cfg
			c.logger = internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)
			return nil
		},
	}

	root.AddCommand(
		newMigrateCmd(c),
		newNumberCmd(c),
		newRenderCmd(c),
		newResendCmd(c),
		newListCmd(c),
	)
	return root
}

// invoicing wires the pipeline without business metrics. The caller closes it.
func (c *cli) invoicing(ctx context.Context) (*bootstrap.Invoicing, error) {
	return bootstrap.NewInvoicing(ctx, c.cfg, c.logger, nil)
}
