package main

import (
	"github.com/spf13/cobra"
)

func newStopCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the stack (docker-compose down)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLifecycle(cmd.Context(), cmd.OutOrStdout(), opts, backend.Stop, false)
		},
	}
	return cmd
}
