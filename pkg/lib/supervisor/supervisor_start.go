package supervisor

import (
	"context"
	"fmt"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"go.uber.org/zap"
)

// StartServices brings the stack up with `up -d --build`.
//
// Events, in order: Status{running: false, starting}, the boot log, then
// either the success log and Status{true, idle}, or the failure log carrying
// stderr and Status{false, idle}. A failed start leaves the running flag as it
// was and returns nil. Only a launch failure returns an error; the settling
// status event is still emitted in that case.
func (s *Supervisor) StartServices(ctx context.Context) error {
	logger, done, err := s.begin("start")
	if err != nil {
		return err
	}
	defer done()

	dir := s.resolveDir()
	logger.Info("starting services", zap.String("dir", dir))

	s.emitStatus(false, lib.TransitionStarting)
	s.emitLog(lib.NewLogEvent(MsgBootStart, lib.LevelInfo))

	res, err := s.run(ctx, s.composeIn(dir, "up", "-d", "--build"), s.outputForwarder())
	if err != nil {
		logger.Error("compose up could not run", zap.Error(err))
		s.emitStatus(s.state.Running(), lib.TransitionIdle)
		return fmt.Errorf("start services: %w", err)
	}

	if !res.ExitSuccess {
		reason := res.FailureText()
		logger.Warn("compose up failed", zap.Int("exit_code", res.ExitCode), zap.String("stderr", reason))
		s.emitLog(lib.NewLogEvent(MsgBootFailedPrefix+reason, lib.LevelError))
		s.emitStatus(false, lib.TransitionIdle)
		return nil
	}

	s.state.SetRunning(true)
	logger.Info("services started", zap.Duration("duration", res.Duration))
	s.emitLog(lib.NewLogEvent(MsgBootComplete, lib.LevelSuccess))
	s.emitStatus(true, lib.TransitionIdle)
	return nil
}
