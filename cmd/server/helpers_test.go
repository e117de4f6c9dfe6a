package main

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/events"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/inventory"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/project"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/runner"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/supervisor"
)

// scriptedRunner answers commands by their argument list; unknown commands
// succeed with no output.
type scriptedRunner struct {
	mu      sync.Mutex
	results map[string]*runner.Result
	errs    map[string]error
	calls   []string
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{results: map[string]*runner.Result{}, errs: map[string]error{}}
}

func (r *scriptedRunner) Run(_ context.Context, command runner.Command) (*runner.Result, error) {
	key := strings.Join(command.Args, " ")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, key)
	if err, ok := r.errs[key]; ok {
		return nil, err
	}
	if res, ok := r.results[key]; ok {
		return res, nil
	}
	return &runner.Result{ExitSuccess: true}, nil
}

func (r *scriptedRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type staticContainers []inventory.Container

func (s staticContainers) List(context.Context) ([]inventory.Container, error) {
	return s, nil
}

var testLinks = []lib.Link{{Name: "DASHBOARD", URL: "http://localhost:3000"}}

func newTestService(t *testing.T, r supervisor.CommandRunner, containers ContainerLister) *SupervisorService {
	t.Helper()
	bus := events.NewBus()
	t.Cleanup(bus.Close)
	sup := supervisor.New(r, bus, supervisor.WithProjectResolver(project.Fixed(t.TempDir())))
	return NewSupervisorService(sup, bus, testLinks, containers, nil)
}
