package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Adam-Blf/abel-assistant/pkg/lib/config"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/events"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/inventory"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/supervisor"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// App is the daemon: one supervisor shared by the gRPC and HTTP fronts.
type App struct {
	logger     *zap.Logger
	bus        *events.Bus
	supervisor *supervisor.Supervisor
	inventory  *inventory.Inventory
	service    *SupervisorService

	grpc    *GRPCServer
	http    *http.Server
	httpLis net.Listener
}

// NewApp wires every component and binds the listeners. r runs the external
// commands; inv may be nil when the Docker API is unreachable.
func NewApp(cfg config.Config, r supervisor.CommandRunner, inv *inventory.Inventory, logger *zap.Logger) (*App, error) {
	bus := events.NewBus(events.WithCapacity(cfg.EventBuffer), events.WithLogger(logger.Named("events")))
	sup := supervisor.New(r, bus,
		supervisor.WithProjectResolver(cfg.ProjectResolver()),
		supervisor.WithComposeCommand(cfg.ComposeCommand...),
		supervisor.WithDockerCommand(cfg.DockerCommand),
		supervisor.WithCommandTimeout(cfg.CommandTimeout),
		supervisor.WithOutputStreaming(cfg.StreamOutput),
		supervisor.WithLogger(logger.Named("supervisor")),
	)

	var containers ContainerLister
	if inv != nil {
		containers = inv
	}
	service := NewSupervisorService(sup, bus, cfg.Links, containers, logger.Named("api"))

	app := &App{logger: logger, bus: bus, supervisor: sup, inventory: inv, service: service}

	grpcServer, err := NewGRPCServer(cfg.GRPCAddress, cfg.TLS, service, logger.Named("grpc"))
	if err != nil {
		return nil, err
	}
	app.grpc = grpcServer

	if cfg.HTTPAddress != "" {
		if !isLoopback(cfg.HTTPAddress) {
			logger.Warn("HTTP API is not restricted to loopback and has no authentication", zap.String("address", cfg.HTTPAddress))
		}
		lis, err := net.Listen("tcp", cfg.HTTPAddress)
		if err != nil {
			_ = grpcServer.Stop(context.Background())
			return nil, fmt.Errorf("failed to listen for HTTP: %w", err)
		}
		app.httpLis = lis
		app.http = &http.Server{Handler: NewHTTPHandler(service), ReadHeaderTimeout: 10 * time.Second}
	}

	return app, nil
}

// projectName is the compose project name of the configured directory.
func projectName(cfg config.Config) string {
	dir, err := filepath.Abs(cfg.ProjectResolver()())
	if err != nil {
		dir = cfg.ProjectResolver()()
	}
	return inventory.ProjectName(dir)
}

// Run serves until ctx is done or a listener fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("gRPC API listening", zap.Stringer("address", a.grpc.Addr()))
		errCh <- a.grpc.Serve()
	}()
	if a.http != nil {
		go func() {
			a.logger.Info("HTTP API listening", zap.Stringer("address", a.httpLis.Addr()))
			if err := a.http.Serve(a.httpLis); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}
	go a.probe(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case serveErr = <-errCh:
		a.logger.Error("listener failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return multierr.Append(serveErr, a.Shutdown(shutdownCtx))
}

// probe logs what the stack looks like when the daemon comes up.
func (a *App) probe(ctx context.Context) {
	available, err := a.supervisor.CheckDockerAvailable(ctx)
	switch {
	case err != nil:
		a.logger.Warn("docker is not installed", zap.Error(err))
		return
	case !available:
		a.logger.Warn("docker daemon is not responding")
	}

	running, err := a.supervisor.CheckStatus(ctx)
	switch {
	case err != nil:
		a.logger.Warn("Docker status check failed", zap.Error(err))
	case running:
		a.logger.Info("Docker services detected - system operational")
	default:
		a.logger.Info("System ready for initialization")
	}
}

// Shutdown ends event streams, stops both fronts and waits for the
// operation in flight. Errors of every step are combined.
func (a *App) Shutdown(ctx context.Context) error {
	a.bus.Close()
	err := a.grpc.Stop(ctx)

	if a.http != nil {
		err = multierr.Append(err, a.http.Shutdown(ctx))
	}
	err = multierr.Append(err, a.supervisor.Close(ctx))
	if a.inventory != nil {
		err = multierr.Append(err, a.inventory.Close())
	}
	return err
}
