package supervisor

import (
	"context"
	"fmt"

	"github.com/Adam-Blf/abel-assistant/pkg/lib/runner"
	"go.uber.org/zap"
)

// CheckDockerAvailable reports whether `docker info` succeeds. A daemon that
// is installed but not running yields false. The error is set only when the
// docker executable could not be launched. No events are emitted.
func (s *Supervisor) CheckDockerAvailable(ctx context.Context) (bool, error) {
	res, err := s.run(ctx, runner.Command{Executable: s.dockerCommand, Args: []string{"info"}}, nil)
	if err != nil {
		s.logger.Warn("docker probe could not run", zap.String("op", "check_docker"), zap.Error(err))
		return false, fmt.Errorf("check docker: %w", err)
	}

	s.logger.Debug("docker probe finished", zap.String("op", "check_docker"), zap.Bool("available", res.ExitSuccess))
	return res.ExitSuccess, nil
}
