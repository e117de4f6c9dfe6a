package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrSpawn matches every SpawnError via errors.Is.
	ErrSpawn = errors.New("command could not be launched")

	ErrEmptyCommand = errors.New("command is required")
)

// SpawnError reports that the executable could not be started at all, as
// opposed to a child that ran and exited non-zero.
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawn
}
