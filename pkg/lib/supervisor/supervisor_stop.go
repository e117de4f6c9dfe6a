package supervisor

import (
	"context"
	"fmt"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"go.uber.org/zap"
)

// StopServices tears the stack down with `down`.
//
// The running flag is cleared whatever the outcome, so the system never
// believes it is up after a shutdown was requested. Events, in order:
// Status{running: true, stopping}, the shutdown log, the completion log or
// the error log carrying stderr, then Status{false, idle}.
func (s *Supervisor) StopServices(ctx context.Context) error {
	logger, done, err := s.begin("stop")
	if err != nil {
		return err
	}
	defer done()

	dir := s.resolveDir()
	logger.Info("stopping services", zap.String("dir", dir))

	s.emitStatus(true, lib.TransitionStopping)
	s.emitLog(lib.NewLogEvent(MsgShutdownStart, lib.LevelWarning))

	res, err := s.run(ctx, s.composeIn(dir, "down"), s.outputForwarder())
	s.state.SetRunning(false)
	if err != nil {
		logger.Error("compose down could not run", zap.Error(err))
		s.emitStatus(false, lib.TransitionIdle)
		return fmt.Errorf("stop services: %w", err)
	}

	if res.ExitSuccess {
		logger.Info("services stopped", zap.Duration("duration", res.Duration))
		s.emitLog(lib.NewLogEvent(MsgShutdownComplete, lib.LevelInfo))
	} else {
		reason := res.FailureText()
		logger.Warn("compose down failed", zap.Int("exit_code", res.ExitCode), zap.String("stderr", reason))
		s.emitLog(lib.NewLogEvent(MsgShutdownErrorPrefix+reason, lib.LevelError))
	}
	s.emitStatus(false, lib.TransitionIdle)
	return nil
}
