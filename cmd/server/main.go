package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adam-Blf/abel-assistant/pkg/lib/config"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/inventory"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/logging"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/runner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "abeld",
		Short:         "A.B.E.L. stack supervisor daemon",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			// a second signal during shutdown kills the daemon
			context.AfterFunc(ctx, stop)

			inv, err := inventory.New(projectName(cfg), logger.Named("inventory"))
			if err != nil {
				logger.Warn("container inventory disabled", zap.Error(err))
				inv = nil
			} else {
				logger.Info("container inventory enabled", zap.String("project", inv.Project()))
			}

			r := runner.New(
				runner.WithLogger(logger.Named("runner")),
				runner.WithWaitDelay(cfg.WaitDelay),
			)
			app, err := NewApp(cfg, r, inv, logger)
			if err != nil {
				if inv != nil {
					_ = inv.Close()
				}
				return err
			}
			return app.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("ABEL_CONFIG"), "path to a YAML configuration file")
	return cmd
}
