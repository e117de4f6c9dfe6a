package supervisor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"go.uber.org/zap"
)

// CheckStatus lists the project's containers and records whether any of them
// is up. The exit status of the listing is not consulted: a failing listing
// prints no ids and so reads as "not running".
func (s *Supervisor) CheckStatus(ctx context.Context) (bool, error) {
	logger, done, err := s.begin("check_status")
	if err != nil {
		return false, err
	}
	defer done()

	res, err := s.run(ctx, s.composeIn(s.resolveDir(), "ps", "-q"), nil)
	if err != nil {
		logger.Warn("status probe could not run", zap.Error(err))
		return false, fmt.Errorf("check status: %w", err)
	}
	if !res.ExitSuccess {
		logger.Debug("status probe exited non-zero", zap.Int("exit_code", res.ExitCode), zap.String("stderr", res.FailureText()))
	}

	running := len(bytes.TrimSpace(res.Stdout)) > 0
	s.state.SetRunning(running)
	s.state.report(lib.NewStatusEvent(running, lib.TransitionIdle))
	logger.Debug("status probe finished", zap.Bool("running", running))
	return running, nil
}

// Running returns the last known state. It runs nothing and emits nothing.
func (s *Supervisor) Running() bool {
	return s.state.Running()
}
