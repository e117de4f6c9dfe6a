package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDockerCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docker",
		Short: "Check that the Docker engine answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			b, err := opts.backend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			available, err := b.CheckDocker(ctx)
			if err != nil {
				return explain(err, opts.cfg)
			}
			if !available {
				fmt.Fprintln(cmd.OutOrStdout(), "DOCKER UNAVAILABLE - START DOCKER DESKTOP OR THE DOCKER DAEMON")
				return errReported
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DOCKER AVAILABLE")
			return nil
		},
	}
	return cmd
}
