package supervisor

import (
	"sync"
	"sync/atomic"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
)

// State is the supervisor's last known view of the stack. Reads and writes
// are atomic; whole operations are serialized by the Supervisor, not here.
type State struct {
	running    atomic.Bool
	transition atomic.Int32

	// status is the last status consumers were told about
	mu     sync.Mutex
	status lib.StatusEvent
}

func (s *State) SetRunning(running bool) {
	s.running.Store(running)
}

func (s *State) Running() bool {
	return s.running.Load()
}

func (s *State) Transition() lib.Transition {
	return lib.Transition(s.transition.Load())
}

func (s *State) Snapshot() lib.Snapshot {
	return lib.Snapshot{Running: s.Running(), Transition: s.Transition()}
}

// report records e as the current status and moves to its transition.
func (s *State) report(e lib.StatusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = e
	s.transition.Store(int32(e.Transition))
}

// Status returns the last reported status. Between two status events it
// does not reflect running flag changes the events have not announced yet.
func (s *State) Status() lib.StatusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
