package main

import (
	"github.com/spf13/cobra"
)

func newEventsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow lifecycle logs and status changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			b, err := opts.backend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			ch, err := b.Events(ctx)
			if err != nil {
				return explain(err, opts.cfg)
			}
			for e := range ch {
				printEvent(cmd.OutOrStdout(), e)
			}
			return nil
		},
	}
	return cmd
}
