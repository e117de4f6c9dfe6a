package main

import (
	"context"

	apiv1 "github.com/Adam-Blf/abel-assistant/api/v1"
	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/events"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/inventory"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/supervisor"
	"go.uber.org/zap"
)

// ContainerLister lists the containers of the managed project.
type ContainerLister interface {
	List(ctx context.Context) ([]inventory.Container, error)
}

// SupervisorService exposes one Supervisor over gRPC and HTTP.
type SupervisorService struct {
	apiv1.UnimplementedSupervisorServer
	supervisor *supervisor.Supervisor
	bus        *events.Bus
	links      []lib.Link
	// containers is nil when the Docker API is unreachable
	containers ContainerLister
	logger     *zap.Logger
}

func NewSupervisorService(sup *supervisor.Supervisor, bus *events.Bus, links []lib.Link, containers ContainerLister, logger *zap.Logger) *SupervisorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupervisorService{
		supervisor: sup,
		bus:        bus,
		links:      links,
		containers: containers,
		logger:     logger,
	}
}

// subscribe opens an event subscription whose first event is the current
// status, so a new consumer does not have to wait for the next transition.
func (s *SupervisorService) subscribe() (*events.Subscription, lib.Event, error) {
	sub, err := s.bus.Subscribe(0)
	if err != nil {
		return nil, lib.Event{}, err
	}
	current := s.supervisor.Status()
	return sub, lib.Event{Topic: lib.TopicStatus, Status: &current}, nil
}
