package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Command is one invocation of an external executable.
type Command struct {
	Executable string
	Args       []string
	// Dir is the working directory. It is not validated; an empty value
	// means the caller's working directory.
	Dir string
}

func (c Command) String() string {
	return strings.TrimSpace(strings.Join(append([]string{c.Executable}, c.Args...), " "))
}

// Stream identifies which output of the child a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// LineHandler receives every complete output line while the child runs.
type LineHandler func(stream Stream, line string)

// Result is the outcome of a child that was launched.
type Result struct {
	ExitSuccess bool
	// ExitCode is -1 when the child was killed by a signal.
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
	// Interrupt is the context error that ended the child early, if any.
	Interrupt error
}

// TimedOut reports whether the child was killed because its deadline passed.
func (r *Result) TimedOut() bool {
	return errors.Is(r.Interrupt, context.DeadlineExceeded)
}

// FailureText describes a failed run for humans: stderr when there is any,
// otherwise how the child ended.
func (r *Result) FailureText() string {
	if msg := strings.TrimSpace(string(r.Stderr)); msg != "" {
		return msg
	}
	switch {
	case r.TimedOut():
		return fmt.Sprintf("command timed out after %s", r.Duration.Round(time.Millisecond))
	case r.Interrupt != nil:
		return fmt.Sprintf("command interrupted: %v", r.Interrupt)
	default:
		return fmt.Sprintf("exit status %d", r.ExitCode)
	}
}

// Runner launches external commands and waits for them.
//
// A Runner holds no per-command state and is safe for concurrent use.
type Runner struct {
	logger      *zap.Logger
	lineHandler LineHandler
	waitDelay   time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLineHandler streams output lines to fn while the child runs, in
// addition to capturing them in the Result.
func WithLineHandler(fn LineHandler) Option {
	return func(r *Runner) {
		r.lineHandler = fn
	}
}

// WithWaitDelay bounds how long Run waits for output pipes to close after the
// child was killed on context expiry.
func WithWaitDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.waitDelay = d
	}
}

// New creates a new Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger:    zap.NewNop(),
		waitDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// With returns a copy of the runner with opts applied on top.
func (runner *Runner) With(opts ...Option) *Runner {
	cp := *runner
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}
