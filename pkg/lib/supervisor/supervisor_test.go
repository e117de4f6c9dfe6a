package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/events"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/project"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	result *runner.Result
	err    error
	lines  []string
}

// fakeRunner answers commands by their argument list.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []runner.Command
	outcomes map[string]outcome
	fallback outcome
	// gate, when set, holds every call until it is closed
	gate        chan struct{}
	hadDeadline []bool

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outcomes: map[string]outcome{},
		fallback: outcome{result: ok("")},
	}
}

func ok(stdout string) *runner.Result {
	return &runner.Result{ExitSuccess: true, Stdout: []byte(stdout)}
}

func failed(code int, stderr string) *runner.Result {
	return &runner.Result{ExitCode: code, Stderr: []byte(stderr)}
}

func (f *fakeRunner) on(args string, o outcome) *fakeRunner {
	f.outcomes[args] = o
	return f
}

func (f *fakeRunner) Run(ctx context.Context, command runner.Command) (*runner.Result, error) {
	return f.RunStreaming(ctx, command, nil)
}

func (f *fakeRunner) RunStreaming(ctx context.Context, command runner.Command, onLine runner.LineHandler) (*runner.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if n <= max || f.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}

	_, hasDeadline := ctx.Deadline()
	f.mu.Lock()
	f.calls = append(f.calls, command)
	f.hadDeadline = append(f.hadDeadline, hasDeadline)
	o, found := f.outcomes[strings.Join(command.Args, " ")]
	if !found {
		o = f.fallback
	}
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if onLine != nil {
		for _, line := range o.lines {
			onLine(runner.Stdout, line)
		}
	}
	return o.result, o.err
}

func (f *fakeRunner) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// recorder keeps every emitted event in order.
type recorder struct {
	mu     sync.Mutex
	events []lib.Event
}

func (r *recorder) EmitLog(e lib.LogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, lib.Event{Topic: lib.TopicLog, Log: &e})
}

func (r *recorder) EmitStatus(e lib.StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, lib.Event{Topic: lib.TopicStatus, Status: &e})
}

// Lines renders the recorded events without timestamps.
func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		if e.Topic == lib.TopicLog {
			out = append(out, fmt.Sprintf("log %s %s", e.Log.Level, e.Log.Message))
		} else {
			out = append(out, fmt.Sprintf("status running=%t starting=%t %s", e.Status.Running, e.Status.Starting, e.Status.Transition))
		}
	}
	return out
}

func newTestSupervisor(r CommandRunner, opts ...Option) (*Supervisor, *recorder) {
	rec := &recorder{}
	opts = append([]Option{WithProjectResolver(project.Fixed("/srv/abel"))}, opts...)
	return New(r, rec, opts...), rec
}

func TestStartServices_Success(t *testing.T) {
	fr := newFakeRunner()
	s, rec := newTestSupervisor(fr)

	require.NoError(t, s.StartServices(context.Background()))

	assert.True(t, s.Running())
	assert.Equal(t, []string{
		"status running=false starting=true starting",
		"log info " + MsgBootStart,
		"log success " + MsgBootComplete,
		"status running=true starting=false idle",
	}, rec.Lines())

	calls := fr.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "docker-compose", calls[0].Executable)
	assert.Equal(t, []string{"up", "-d", "--build"}, calls[0].Args)
	assert.Equal(t, "/srv/abel", calls[0].Dir)
	assert.Equal(t, lib.Snapshot{Running: true, Transition: lib.TransitionIdle}, s.Snapshot())
}

func TestStartServices_RepeatedSuccessEmitsOneCompletionPerCall(t *testing.T) {
	fr := newFakeRunner()
	s, rec := newTestSupervisor(fr)

	const calls = 4
	for i := 0; i < calls; i++ {
		require.NoError(t, s.StartServices(context.Background()))
		assert.True(t, s.Running())
	}

	successes, settled := 0, 0
	for _, line := range rec.Lines() {
		switch line {
		case "log success " + MsgBootComplete:
			successes++
		case "status running=true starting=false idle":
			settled++
		}
	}
	assert.Equal(t, calls, successes)
	assert.Equal(t, calls, settled)
}

func TestStartServices_FailureReportsStderr(t *testing.T) {
	for _, before := range []bool{false, true} {
		t.Run(fmt.Sprintf("running=%t", before), func(t *testing.T) {
			fr := newFakeRunner().on("up -d --build", outcome{result: failed(1, "network unreachable\n")})
			s, rec := newTestSupervisor(fr)
			s.state.SetRunning(before)

			require.NoError(t, s.StartServices(context.Background()))

			assert.Equal(t, []string{
				"status running=false starting=true starting",
				"log info " + MsgBootStart,
				"log error BOOT SEQUENCE FAILED: network unreachable",
				"status running=false starting=false idle",
			}, rec.Lines())
			assert.Equal(t, before, s.Running())
		})
	}
}

func TestStartServices_SpawnErrorStillSettles(t *testing.T) {
	spawnErr := &runner.SpawnError{Executable: "docker-compose", Err: errors.New("executable file not found in $PATH")}
	fr := newFakeRunner().on("up -d --build", outcome{err: spawnErr})
	s, rec := newTestSupervisor(fr)

	err := s.StartServices(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, runner.ErrSpawn)

	assert.Equal(t, []string{
		"status running=false starting=true starting",
		"log info " + MsgBootStart,
		"status running=false starting=false idle",
	}, rec.Lines())
	assert.False(t, s.Running())
}

func TestStopServices_ClearsStateWhateverTheOutcome(t *testing.T) {
	tests := []struct {
		name string
		out  outcome
		want []string
	}{
		{
			name: "success",
			out:  outcome{result: ok("")},
			want: []string{
				"status running=true starting=true stopping",
				"log warning " + MsgShutdownStart,
				"log info " + MsgShutdownComplete,
				"status running=false starting=false idle",
			},
		},
		{
			name: "failure",
			out:  outcome{result: failed(1, "no such project\n")},
			want: []string{
				"status running=true starting=true stopping",
				"log warning " + MsgShutdownStart,
				"log error SHUTDOWN ERROR: no such project",
				"status running=false starting=false idle",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := newFakeRunner().on("down", tt.out)
			s, rec := newTestSupervisor(fr)
			s.state.SetRunning(true)

			require.NoError(t, s.StopServices(context.Background()))

			assert.False(t, s.Running())
			assert.Equal(t, tt.want, rec.Lines())
			require.Len(t, fr.Calls(), 1)
			assert.Equal(t, []string{"down"}, fr.Calls()[0].Args)
		})
	}
}

func TestStopServices_SpawnError(t *testing.T) {
	fr := newFakeRunner().on("down", outcome{err: &runner.SpawnError{Executable: "docker-compose", Err: errors.New("not found")}})
	s, rec := newTestSupervisor(fr)
	s.state.SetRunning(true)

	err := s.StopServices(context.Background())
	assert.ErrorIs(t, err, runner.ErrSpawn)
	assert.False(t, s.Running())
	assert.Equal(t, []string{
		"status running=true starting=true stopping",
		"log warning " + MsgShutdownStart,
		"status running=false starting=false idle",
	}, rec.Lines())
}

func TestRunning_RunsNothingAndEmitsNothing(t *testing.T) {
	fr := newFakeRunner()
	s, rec := newTestSupervisor(fr)

	assert.False(t, s.Running())
	s.state.SetRunning(true)
	for i := 0; i < 10; i++ {
		assert.True(t, s.Running())
	}

	assert.Empty(t, fr.Calls())
	assert.Empty(t, rec.Lines())
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name   string
		result *runner.Result
		want   bool
	}{
		{name: "container id", result: ok("abc123\n"), want: true},
		{name: "several ids", result: ok("abc123\ndef456\n"), want: true},
		{name: "whitespace only", result: ok("   \n"), want: false},
		{name: "empty", result: ok(""), want: false},
		{name: "listing failed", result: failed(1, "no configuration file provided"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := newFakeRunner().on("ps -q", outcome{result: tt.result})
			s, rec := newTestSupervisor(fr)
			s.state.SetRunning(!tt.want)

			got, err := s.CheckStatus(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, s.Running())
			assert.Empty(t, rec.Lines())

			calls := fr.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "/srv/abel", calls[0].Dir)
		})
	}
}

func TestCheckStatus_SpawnErrorKeepsState(t *testing.T) {
	fr := newFakeRunner().on("ps -q", outcome{err: &runner.SpawnError{Executable: "docker-compose", Err: errors.New("not found")}})
	s, rec := newTestSupervisor(fr)
	s.state.SetRunning(true)

	got, err := s.CheckStatus(context.Background())
	assert.ErrorIs(t, err, runner.ErrSpawn)
	assert.False(t, got)
	assert.True(t, s.Running())
	assert.Empty(t, rec.Lines())
}

func TestCheckDockerAvailable(t *testing.T) {
	fr := newFakeRunner().on("info", outcome{result: ok("Server Version: 27.0.1")})
	s, rec := newTestSupervisor(fr, WithDockerCommand("podman"))

	available, err := s.CheckDockerAvailable(context.Background())
	require.NoError(t, err)
	assert.True(t, available)

	calls := fr.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "podman", calls[0].Executable)
	assert.Empty(t, calls[0].Dir)
	assert.Empty(t, rec.Lines())
}

func TestCheckDockerAvailable_DaemonDown(t *testing.T) {
	fr := newFakeRunner().on("info", outcome{result: failed(1, "Cannot connect to the Docker daemon")})
	s, rec := newTestSupervisor(fr)

	available, err := s.CheckDockerAvailable(context.Background())
	require.NoError(t, err)
	assert.False(t, available)
	assert.Empty(t, rec.Lines())
}

func TestCheckDockerAvailable_MissingBinary(t *testing.T) {
	s, rec := newTestSupervisor(runner.New(), WithDockerCommand("abel-missing-docker"))

	available, err := s.CheckDockerAvailable(context.Background())
	require.Error(t, err)
	assert.False(t, available)

	var spawnErr *runner.SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, "abel-missing-docker", spawnErr.Executable)
	assert.Empty(t, rec.Lines())
}

func TestComposeCommandWithSubcommand(t *testing.T) {
	fr := newFakeRunner()
	s, _ := newTestSupervisor(fr, WithComposeCommand("docker", "compose"))

	require.NoError(t, s.StopServices(context.Background()))

	calls := fr.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "docker", calls[0].Executable)
	assert.Equal(t, []string{"compose", "down"}, calls[0].Args)
}

func TestCommandTimeout(t *testing.T) {
	fr := newFakeRunner()
	s, _ := newTestSupervisor(fr)
	_, err := s.CheckStatus(context.Background())
	require.NoError(t, err)

	timed, _ := newTestSupervisor(fr, WithCommandTimeout(time.Minute))
	_, err = timed.CheckStatus(context.Background())
	require.NoError(t, err)

	fr.mu.Lock()
	defer fr.mu.Unlock()
	assert.Equal(t, []bool{false, true}, fr.hadDeadline)
}

func TestOutputStreaming(t *testing.T) {
	fr := newFakeRunner().on("up -d --build", outcome{result: ok(""), lines: []string{"Creating qdrant", "", "Started"}})
	s, rec := newTestSupervisor(fr, WithOutputStreaming(true))

	require.NoError(t, s.StartServices(context.Background()))

	assert.Equal(t, []string{
		"status running=false starting=true starting",
		"log info " + MsgBootStart,
		"log info Creating qdrant",
		"log info Started",
		"log success " + MsgBootComplete,
		"status running=true starting=false idle",
	}, rec.Lines())
}

func TestOperationsAreSerialized(t *testing.T) {
	fr := newFakeRunner()
	fr.gate = make(chan struct{})
	s, _ := newTestSupervisor(fr)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_ = s.StartServices(context.Background())
			case 1:
				_ = s.StopServices(context.Background())
			default:
				_, _ = s.CheckStatus(context.Background())
			}
		}(i)
	}

	// Running must stay answerable while an operation is blocked
	require.Eventually(t, func() bool { return len(fr.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	_ = s.Running()

	close(fr.gate)
	wg.Wait()

	assert.Len(t, fr.Calls(), 6)
	assert.Equal(t, int32(1), fr.maxInFlight.Load())
}

func TestClose_WaitsForInFlightOperation(t *testing.T) {
	fr := newFakeRunner()
	fr.gate = make(chan struct{})
	s, _ := newTestSupervisor(fr)

	started := make(chan error, 1)
	go func() { started <- s.StartServices(context.Background()) }()
	require.Eventually(t, func() bool { return len(fr.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Close(ctx), context.DeadlineExceeded)

	close(fr.gate)
	require.NoError(t, <-started)
	require.NoError(t, s.Close(context.Background()))

	assert.ErrorIs(t, s.StartServices(context.Background()), ErrClosed)
	_, err := s.CheckStatus(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, s.Running())
}

type panickingEmitter struct{}

func (panickingEmitter) EmitLog(lib.LogEvent)       { panic("log sink gone") }
func (panickingEmitter) EmitStatus(lib.StatusEvent) { panic("status sink gone") }

func TestEmitterFailureDoesNotAbortOperation(t *testing.T) {
	s := New(newFakeRunner(), panickingEmitter{}, WithProjectResolver(project.Fixed("/srv/abel")))

	require.NoError(t, s.StartServices(context.Background()))
	assert.True(t, s.Running())
}

func TestWithEventBus(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	sub, err := bus.Subscribe(16, lib.TopicStatus)
	require.NoError(t, err)

	s := New(newFakeRunner(), bus, WithProjectResolver(project.Fixed("/srv/abel")))
	require.NoError(t, s.StartServices(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	first, ok := sub.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, lib.NewStatusEvent(false, lib.TransitionStarting), *first.Status)

	last, ok := sub.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, lib.NewStatusEvent(true, lib.TransitionIdle), *last.Status)
}

// observingEmitter calls onLog for every log event, while the operation that
// emitted it is still running.
type observingEmitter struct {
	recorder
	onLog func(lib.LogEvent)
}

func (o *observingEmitter) EmitLog(e lib.LogEvent) {
	o.recorder.EmitLog(e)
	o.onLog(e)
}

func TestStatus_FollowsEmittedEvents(t *testing.T) {
	r := newFakeRunner().on("ps -q", outcome{result: ok("")})
	em := &observingEmitter{}
	s := New(r, em, WithProjectResolver(project.Fixed("/srv/abel")))

	seen := map[string]lib.StatusEvent{}
	em.onLog = func(e lib.LogEvent) { seen[e.Message] = s.Status() }

	assert.Equal(t, lib.NewStatusEvent(false, lib.TransitionIdle), s.Status())

	require.NoError(t, s.StartServices(context.Background()))
	// the running flag is already set when the completion log goes out, but
	// the settling status has not been emitted yet
	assert.True(t, s.Running())
	assert.Equal(t, lib.NewStatusEvent(false, lib.TransitionStarting), seen[MsgBootComplete])
	assert.Equal(t, lib.NewStatusEvent(true, lib.TransitionIdle), s.Status())

	require.NoError(t, s.StopServices(context.Background()))
	assert.Equal(t, lib.NewStatusEvent(true, lib.TransitionStopping), seen[MsgShutdownComplete])
	assert.Equal(t, lib.NewStatusEvent(false, lib.TransitionIdle), s.Status())

	r.on("ps -q", outcome{result: ok("abc123\n")})
	_, err := s.CheckStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lib.NewStatusEvent(true, lib.TransitionIdle), s.Status())
}
