package runner

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"github.com/Adam-Blf/abel-assistant/pkg/lib/output_storage"
	"go.uber.org/zap"
)

// Run launches the command and blocks until it exits, capturing stdout and
// stderr in full.
//
// A child that exits non-zero is not an error: it is reported through
// Result.ExitSuccess. The returned error is a *SpawnError when the executable
// could not be launched at all.
//
// Run applies no deadline of its own. When ctx ends first the child's process
// group is killed and Result.Interrupt carries ctx.Err().
func (runner *Runner) Run(ctx context.Context, command Command) (*Result, error) {
	if command.Executable == "" {
		return nil, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, command.Executable, command.Args...)
	cmd.Dir = command.Dir
	cmd.WaitDelay = runner.waitDelay
	configureProcessGroup(cmd)

	stdout := output_storage.New(output_storage.WithLogger(runner.logger))
	stderr := output_storage.New(output_storage.WithLogger(runner.logger))

	// cmd.Stdin is left nil, so it will use /dev/null
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	var followers sync.WaitGroup
	if runner.lineHandler != nil {
		follow := func(stream Stream, storage *output_storage.OutputStorage) {
			defer followers.Done()
			for line := range storage.SubscribeLines(16) {
				runner.lineHandler(stream, line)
			}
		}
		followers.Add(2)
		go follow(Stdout, stdout)
		go follow(Stderr, stderr)
	}
	finish := func() {
		stdout.Stop()
		stderr.Stop()
		followers.Wait()
	}

	logger := runner.logger.With(zap.String("command", command.String()), zap.String("dir", command.Dir))
	logger.Debug("starting command")

	started := time.Now()
	if err := cmd.Start(); err != nil {
		finish()
		logger.Debug("failed to start command", zap.Error(err))
		return nil, &SpawnError{Executable: command.Executable, Err: err}
	}

	waitErr := cmd.Wait()
	finish()

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(started),
		ExitCode: -1,
	}
	if state := cmd.ProcessState; state != nil {
		result.ExitCode = state.ExitCode()
		result.ExitSuccess = state.Success()
	}
	if ctxErr := ctx.Err(); ctxErr != nil && waitErr != nil {
		result.Interrupt = ctxErr
		result.ExitSuccess = false
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		// e.g. exec.ErrWaitDelay when a grandchild kept the pipes open
		logger.Warn("command wait returned an error", zap.Error(waitErr))
	}

	logger.Debug("command finished",
		zap.Bool("success", result.ExitSuccess),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// RunStreaming is Run with onLine receiving output lines as they arrive.
func (runner *Runner) RunStreaming(ctx context.Context, command Command, onLine LineHandler) (*Result, error) {
	return runner.With(WithLineHandler(onLine)).Run(ctx, command)
}
