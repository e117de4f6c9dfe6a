// Package supervisor drives the compose stack through its lifecycle and
// reports every transition as log and status events.
//
// # Operations
//
//   - CheckDockerAvailable probes the container engine with `docker info`.
//   - CheckStatus asks the orchestration tool which containers are up.
//   - StartServices runs `up -d --build` in the project directory.
//   - StopServices runs `down` in the project directory.
//   - Running returns the last known state without running anything.
//
// StartServices and StopServices each emit a status event before the command
// runs and another once it settled, so a consumer can show progress without
// polling. A command that exits non-zero is reported only through events;
// only a tool that cannot be launched at all surfaces as an error.
//
// CheckStatus, StartServices and StopServices are serialized: at most one of
// them is in flight per Supervisor.
package supervisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/project"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/runner"
	"go.uber.org/zap"
)

// Log messages emitted by the lifecycle operations.
const (
	MsgBootStart           = "INITIATING BOOT SEQUENCE..."
	MsgBootComplete        = "ALL SYSTEMS OPERATIONAL - A.B.E.L. ONLINE"
	MsgBootFailedPrefix    = "BOOT SEQUENCE FAILED: "
	MsgShutdownStart       = "INITIATING SHUTDOWN SEQUENCE..."
	MsgShutdownComplete    = "SHUTDOWN COMPLETE - ENTERING STANDBY"
	MsgShutdownErrorPrefix = "SHUTDOWN ERROR: "
)

// ErrClosed is returned by operations invoked after Close.
var ErrClosed = errors.New("supervisor is closed")

// CommandRunner launches one external command and waits for it.
type CommandRunner interface {
	Run(ctx context.Context, command runner.Command) (*runner.Result, error)
}

// LineStreamer is implemented by runners that can report output lines while
// the command is still running.
type LineStreamer interface {
	RunStreaming(ctx context.Context, command runner.Command, onLine runner.LineHandler) (*runner.Result, error)
}

// Emitter receives lifecycle events. Implementations must not block.
type Emitter interface {
	EmitLog(lib.LogEvent)
	EmitStatus(lib.StatusEvent)
}

// Supervisor owns the running flag of one compose stack.
type Supervisor struct {
	runner  CommandRunner
	emitter Emitter
	state   State

	// opMu serializes every operation that writes state
	opMu   sync.Mutex
	closed atomic.Bool

	resolveDir     project.Resolver
	composeCommand []string
	dockerCommand  string
	commandTimeout time.Duration
	streamOutput   bool
	logger         *zap.Logger
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithProjectResolver sets how the compose project directory is found for
// each operation. Defaults to project.FromExecutable.
func WithProjectResolver(r project.Resolver) Option {
	return func(s *Supervisor) {
		s.resolveDir = r
	}
}

// WithComposeCommand sets the orchestration tool argv prefix, e.g.
// []string{"docker", "compose"}. Defaults to docker-compose.
func WithComposeCommand(argv ...string) Option {
	return func(s *Supervisor) {
		if len(argv) > 0 {
			s.composeCommand = append([]string(nil), argv...)
		}
	}
}

// WithDockerCommand sets the executable probed by CheckDockerAvailable.
func WithDockerCommand(name string) Option {
	return func(s *Supervisor) {
		if name != "" {
			s.dockerCommand = name
		}
	}
}

// WithCommandTimeout bounds each external command. Zero, the default, means
// commands may run forever.
func WithCommandTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		s.commandTimeout = d
	}
}

// WithOutputStreaming forwards every output line of `up` and `down` as an
// info log event while the command runs. It needs a runner implementing
// LineStreamer.
func WithOutputStreaming(enabled bool) Option {
	return func(s *Supervisor) {
		s.streamOutput = enabled
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// New creates a Supervisor in the stopped state.
func New(r CommandRunner, emitter Emitter, opts ...Option) *Supervisor {
	s := &Supervisor{
		runner:         r,
		emitter:        emitter,
		resolveDir:     project.FromExecutable(),
		composeCommand: []string{"docker-compose"},
		dockerCommand:  "docker",
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the running flag and the transition in progress.
func (s *Supervisor) Snapshot() lib.Snapshot {
	return s.state.Snapshot()
}

// Status returns the status event a new subscriber should start from: the
// last one emitted, or the result of the last status probe if that is newer.
// Subscribe before calling it so no later event is missed.
func (s *Supervisor) Status() lib.StatusEvent {
	return s.state.Status()
}

// ProjectDir returns the directory the next operation would run in.
func (s *Supervisor) ProjectDir() string {
	return s.resolveDir()
}

// Close rejects new operations and waits for the one in flight, if any,
// until ctx is done.
func (s *Supervisor) Close(ctx context.Context) error {
	s.closed.Store(true)

	idle := make(chan struct{})
	go func() {
		s.opMu.Lock()
		s.opMu.Unlock()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin takes the operation lock. The returned func releases it.
func (s *Supervisor) begin(op string) (*zap.Logger, func(), error) {
	s.opMu.Lock()
	if s.closed.Load() {
		s.opMu.Unlock()
		return nil, nil, ErrClosed
	}
	logger := s.logger.With(zap.String("op", op), zap.String("op_id", lib.NewID()))
	return logger, s.opMu.Unlock, nil
}

func (s *Supervisor) composeIn(dir string, args ...string) runner.Command {
	argv := append(append([]string(nil), s.composeCommand[1:]...), args...)
	return runner.Command{Executable: s.composeCommand[0], Args: argv, Dir: dir}
}

func (s *Supervisor) run(ctx context.Context, command runner.Command, onLine runner.LineHandler) (*runner.Result, error) {
	if s.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commandTimeout)
		defer cancel()
	}
	if onLine != nil {
		if streamer, ok := s.runner.(LineStreamer); ok {
			return streamer.RunStreaming(ctx, command, onLine)
		}
	}
	return s.runner.Run(ctx, command)
}

// outputForwarder returns the line handler for up/down, or nil when output
// streaming is off.
func (s *Supervisor) outputForwarder() runner.LineHandler {
	if !s.streamOutput {
		return nil
	}
	return func(_ runner.Stream, line string) {
		if line == "" {
			return
		}
		s.emitLog(lib.NewLogEvent(line, lib.LevelInfo))
	}
}

func (s *Supervisor) emitLog(e lib.LogEvent) {
	defer s.recoverEmit("log")
	s.emitter.EmitLog(e)
}

func (s *Supervisor) emitStatus(running bool, t lib.Transition) {
	e := lib.NewStatusEvent(running, t)
	s.state.report(e)
	defer s.recoverEmit("status")
	s.emitter.EmitStatus(e)
}

// recoverEmit keeps a misbehaving emitter from failing the operation.
func (s *Supervisor) recoverEmit(topic string) {
	if r := recover(); r != nil {
		s.logger.Warn("event emitter panicked", zap.String("topic", topic), zap.Any("panic", r))
	}
}
