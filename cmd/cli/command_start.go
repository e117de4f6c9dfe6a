package main

import (
	"context"
	"errors"
	"io"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/spf13/cobra"
)

var errStreamEnded = errors.New("event stream ended before the operation settled")

func newStartCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Build and start the stack (docker-compose up -d --build)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLifecycle(cmd.Context(), cmd.OutOrStdout(), opts, backend.Start, true)
		},
	}
	return cmd
}

// runLifecycle runs op while printing the events it produces. It fails when
// an error was logged or the settled state is not wantRunning; the printed
// log already says why.
//
// An operation of another client may be in flight when the subscription
// opens. Operations run one at a time, so op is settled once op returned and
// every transition seen on the stream, including the one in flight at the
// start, reached idle. The last idle status is op's result.
func runLifecycle(ctx context.Context, out io.Writer, opts *cliOptions, op func(backend, context.Context) error, wantRunning bool) error {
	b, err := opts.backend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	evCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := b.Events(evCtx)
	if err != nil {
		return explain(err, opts.cfg)
	}
	opening, ok := <-ch
	if !ok {
		return errStreamEnded
	}
	pending := 0
	if opening.Status != nil && opening.Status.Transition != lib.TransitionIdle {
		pending = 1
	}

	opDone := make(chan error, 1)
	go func() {
		opDone <- op(b, ctx)
	}()

	var (
		returned  bool
		began     bool
		loggedErr bool
		last      *lib.StatusEvent
	)
	for !returned || !began || pending > 0 {
		select {
		case err := <-opDone:
			if err != nil {
				return explain(err, opts.cfg)
			}
			returned = true
			opDone = nil
		case e, ok := <-ch:
			if !ok {
				return errStreamEnded
			}
			printEvent(out, e)
			switch {
			case e.Log != nil && e.Log.Level == lib.LevelError:
				loggedErr = true
			case e.Status != nil && e.Status.Transition != lib.TransitionIdle:
				pending++
				began = true
				loggedErr = false
			case e.Status != nil:
				pending--
				last = e.Status
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if loggedErr || last == nil || last.Running != wantRunning {
		return errReported
	}
	return nil
}
