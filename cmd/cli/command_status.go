package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe the compose project and print whether it is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			b, err := opts.backend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			running, err := b.CheckStatus(ctx)
			if err != nil {
				return explain(err, opts.cfg)
			}
			snap, err := b.Snapshot(ctx)
			if err != nil {
				return explain(err, opts.cfg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), statusLabel(running, snap.Transition))
			return nil
		},
	}
	return cmd
}

func newRunningCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "running",
		Short: "Print the last known state without probing",
		Long: "Print the last known state without probing.\n\n" +
			"With --local there is no previous state, so the project is probed once.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			b, err := opts.backend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			running, err := b.Running(ctx)
			if err != nil {
				return explain(err, opts.cfg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), running)
			return nil
		},
	}
	return cmd
}
