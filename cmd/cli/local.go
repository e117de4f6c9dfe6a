package main

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/config"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/events"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/inventory"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/runner"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/supervisor"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// localBackend runs the supervisor inside the CLI process. Its state starts
// unknown (not running) and dies with the process, so commands that need it
// probe first.
type localBackend struct {
	cfg        config.Config
	bus        *events.Bus
	supervisor *supervisor.Supervisor
	logger     *zap.Logger

	invOnce sync.Once
	inv     *inventory.Inventory
	invErr  error
}

func newLocalBackend(cfg config.Config, logger *zap.Logger) (*localBackend, error) {
	r := runner.New(
		runner.WithLogger(logger.Named("runner")),
		runner.WithWaitDelay(cfg.WaitDelay),
	)
	return newLocalBackendWithRunner(cfg, r, logger), nil
}

func newLocalBackendWithRunner(cfg config.Config, r supervisor.CommandRunner, logger *zap.Logger) *localBackend {
	bus := events.NewBus(events.WithCapacity(cfg.EventBuffer), events.WithLogger(logger.Named("events")))
	sup := supervisor.New(r, bus,
		supervisor.WithProjectResolver(cfg.ProjectResolver()),
		supervisor.WithComposeCommand(cfg.ComposeCommand...),
		supervisor.WithDockerCommand(cfg.DockerCommand),
		supervisor.WithCommandTimeout(cfg.CommandTimeout),
		supervisor.WithOutputStreaming(cfg.StreamOutput),
		supervisor.WithLogger(logger.Named("supervisor")),
	)
	return &localBackend{cfg: cfg, bus: bus, supervisor: sup, logger: logger}
}

// Commands run to completion whatever the caller's deadline; only the
// configured command timeout bounds them, as in the daemon.

func (b *localBackend) CheckDocker(ctx context.Context) (bool, error) {
	return b.supervisor.CheckDockerAvailable(context.WithoutCancel(ctx))
}

func (b *localBackend) CheckStatus(ctx context.Context) (bool, error) {
	return b.supervisor.CheckStatus(context.WithoutCancel(ctx))
}

// Running probes once: a fresh process has no state of its own yet.
func (b *localBackend) Running(ctx context.Context) (bool, error) {
	return b.supervisor.CheckStatus(context.WithoutCancel(ctx))
}

func (b *localBackend) Start(ctx context.Context) error {
	return b.supervisor.StartServices(context.WithoutCancel(ctx))
}

func (b *localBackend) Stop(ctx context.Context) error {
	return b.supervisor.StopServices(context.WithoutCancel(ctx))
}

func (b *localBackend) Snapshot(context.Context) (lib.Snapshot, error) {
	return b.supervisor.Snapshot(), nil
}

func (b *localBackend) Links(context.Context) ([]lib.Link, error) {
	return b.cfg.Links, nil
}

func (b *localBackend) Containers(ctx context.Context) ([]inventory.Container, error) {
	b.invOnce.Do(func() {
		dir, err := filepath.Abs(b.supervisor.ProjectDir())
		if err != nil {
			dir = b.supervisor.ProjectDir()
		}
		b.inv, b.invErr = inventory.New(inventory.ProjectName(dir), b.logger.Named("inventory"))
	})
	if b.invErr != nil {
		return nil, b.invErr
	}
	return b.inv.List(ctx)
}

func (b *localBackend) Events(ctx context.Context) (<-chan lib.Event, error) {
	sub, err := b.bus.Subscribe(0)
	if err != nil {
		return nil, err
	}
	current := b.supervisor.Status()

	ch := make(chan lib.Event, 1)
	ch <- lib.Event{Topic: lib.TopicStatus, Status: &current}
	go func() {
		defer close(ch)
		defer sub.Close()
		for {
			e, ok := sub.Next(ctx)
			if !ok {
				return
			}
			select {
			case ch <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (b *localBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := b.supervisor.Close(ctx)
	b.bus.Close()
	if b.inv != nil {
		err = multierr.Append(err, b.inv.Close())
	}
	return err
}
