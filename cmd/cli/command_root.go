package main

import (
	"context"
	"errors"

	"github.com/Adam-Blf/abel-assistant/pkg/lib/config"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errReported fails the command after its output already explained why.
var errReported = errors.New("reported")

type cliOptions struct {
	configPath string
	local      bool
	verbose    bool

	cfg    config.Config
	logger *zap.Logger

	// newBackend replaces dialing in tests
	newBackend func(ctx context.Context) (backend, error)
}

// backend connects to the daemon, or builds an in-process supervisor with
// --local.
func (o *cliOptions) backend(ctx context.Context) (backend, error) {
	if o.newBackend != nil {
		return o.newBackend(ctx)
	}
	if o.local {
		return newLocalBackend(o.cfg, o.logger)
	}
	return dialBackend(ctx, o.cfg)
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&cliOptions{})
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "abel",
		Short:         "Control the A.B.E.L. docker-compose stack",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger, err := logging.New(level, cfg.Log.Format)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logger
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML configuration file")
	flags.BoolVar(&opts.local, "local", false, "run the supervisor in this process instead of dialing abeld")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newDockerCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newRunningCmd(opts))
	root.AddCommand(newStartCmd(opts))
	root.AddCommand(newStopCmd(opts))
	root.AddCommand(newEventsCmd(opts))
	root.AddCommand(newLinksCmd(opts))
	root.AddCommand(newContainersCmd(opts))

	return root
}
