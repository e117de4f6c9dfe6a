package lib

import (
	"fmt"
	"strings"
)

// LogLevel classifies a LogEvent for consumers rendering the event stream.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelSuccess LogLevel = "success"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// ParseLogLevel accepts the lower-case level names used on the wire.
func ParseLogLevel(s string) (LogLevel, error) {
	switch level := LogLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case LevelInfo, LevelSuccess, LevelWarning, LevelError:
		return level, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// Transition is the lifecycle transition in progress, if any.
type Transition int

const (
	TransitionIdle Transition = iota
	TransitionStarting
	TransitionStopping
)

func (t Transition) String() string {
	switch t {
	case TransitionIdle:
		return "idle"
	case TransitionStarting:
		return "starting"
	case TransitionStopping:
		return "stopping"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseTransition is the inverse of Transition.String.
func ParseTransition(s string) (Transition, error) {
	switch s {
	case "idle", "":
		return TransitionIdle, nil
	case "starting":
		return TransitionStarting, nil
	case "stopping":
		return TransitionStopping, nil
	default:
		return TransitionIdle, fmt.Errorf("unknown transition %q", s)
	}
}

func (t Transition) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Transition) UnmarshalText(b []byte) error {
	v, err := ParseTransition(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// LogEvent is a single line of the lifecycle log.
type LogEvent struct {
	Message   string   `json:"message"`
	Level     LogLevel `json:"level"`
	Timestamp string   `json:"timestamp"`
}

// NewLogEvent stamps message with the current local time.
func NewLogEvent(message string, level LogLevel) LogEvent {
	return LogEvent{Message: message, Level: level, Timestamp: Timestamp()}
}

// StatusEvent is a point-in-time snapshot of the supervisor.
//
// Starting is true while any transition is in progress, for start and stop
// alike. Transition tells the two apart.
type StatusEvent struct {
	Running    bool       `json:"running"`
	Starting   bool       `json:"starting"`
	Transition Transition `json:"transition"`
}

func NewStatusEvent(running bool, transition Transition) StatusEvent {
	return StatusEvent{
		Running:    running,
		Starting:   transition != TransitionIdle,
		Transition: transition,
	}
}

// Topic names the stream an Event belongs to.
type Topic string

const (
	TopicLog    Topic = "log"
	TopicStatus Topic = "status"
)

// Event is the envelope delivered to subscribers. Exactly one of Log and
// Status is set, matching Topic.
type Event struct {
	Topic  Topic        `json:"topic"`
	Log    *LogEvent    `json:"log,omitempty"`
	Status *StatusEvent `json:"status,omitempty"`
}

// Snapshot is the supervisor's current view without probing the stack.
type Snapshot struct {
	Running    bool       `json:"running"`
	Transition Transition `json:"transition"`
}

// Link is a named endpoint of the running stack.
type Link struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}
