package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newLinksCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "List the endpoints of the running stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			b, err := opts.backend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			links, err := b.Links(ctx)
			if err != nil {
				return explain(err, opts.cfg)
			}
			rows := make([][]string, 0, len(links))
			for _, l := range links {
				rows = append(rows, []string{l.Name, l.URL})
			}
			printTable(cmd.OutOrStdout(), []string{"NAME", "URL"}, rows)
			return nil
		},
	}
	return cmd
}

func newContainersCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers",
		Short: "List the containers of the compose project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			b, err := opts.backend(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			cs, err := b.Containers(ctx)
			if err != nil {
				return explain(err, opts.cfg)
			}
			rows := make([][]string, 0, len(cs))
			for _, c := range cs {
				rows = append(rows, []string{c.Service, c.Name, c.State, c.Status, strings.Join(c.Ports, ", ")})
			}
			printTable(cmd.OutOrStdout(), []string{"SERVICE", "NAME", "STATE", "STATUS", "PORTS"}, rows)
			return nil
		},
	}
	return cmd
}
