package output_storage

import (
	"sync"
	"sync/atomic"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/broadcast"
	"go.uber.org/zap"
)

// node represents an element in the singly linked list.
// It carries a payload (byte slice) and an atomic pointer to the next node.
// The list uses a sentinel head node for simpler append logic.
type node struct {
	data []byte
	next atomic.Pointer[node]
}

// OutputStorage is an append-only singly linked list of byte slices capturing
// one output stream of a child process.
//
// Appends are serialized; readers walk the list without locks, so Bytes and
// ForEach see a consistent prefix of what was written. Subscribers replay the
// full history and then follow new appends until Stop.
type OutputStorage struct {
	head *node // sentinel head, immutable

	mu   sync.Mutex
	tail *node // last element in the list (or sentinel if empty)
	size atomic.Int64

	notifier *broadcast.Broadcaster[struct{}]
	logger   *zap.Logger
}

// Option configures an OutputStorage.
type Option func(*OutputStorage)

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *OutputStorage) {
		s.logger = logger
	}
}

// New creates a new, empty OutputStorage.
func New(opts ...Option) *OutputStorage {
	sentinel := &node{}
	s := &OutputStorage{
		head: sentinel,
		tail: sentinel,

		// one pending wake-up is enough: subscribers re-walk the list
		notifier: broadcast.NewBroadcaster[struct{}](broadcast.WithCapacity(1), broadcast.WithDropPolicy(broadcast.DropOldest)),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Stop marks the stream as complete. Subscribers drain what is stored and
// their channels close.
func (s *OutputStorage) Stop() {
	if s == nil {
		return
	}

	s.notifier.Stop()
}

// Append adds the provided byte slice to the end of the list.
// Note: The slice is stored as-is; if callers may mutate the slice afterward,
// they should pass a copy (e.g., append([]byte(nil), data...)).
func (s *OutputStorage) Append(data []byte) {
	if s == nil {
		return
	}

	newTail := &node{data: data}

	s.mu.Lock()
	s.tail.next.Store(newTail)
	s.tail = newTail
	s.mu.Unlock()

	s.size.Add(int64(len(data)))
	s.notifier.Publish(struct{}{})
}

// Len returns the number of bytes stored so far.
func (s *OutputStorage) Len() int {
	if s == nil {
		return 0
	}
	return int(s.size.Load())
}

func (s *OutputStorage) follow(notifier <-chan struct{}, ch chan<- []byte) {
	id := lib.NewID()
	s.logger.Debug("subscriber started", zap.String("subscriber", id))
	prev := s.head

	for {
		current := prev.next.Load()
		if current == nil {
			if _, ok := <-notifier; !ok {
				// stream finished; flush anything appended before Stop
				s.drainFrom(prev, ch)
				s.logger.Debug("subscriber finished", zap.String("subscriber", id))
				close(ch)
				return
			}
			continue
		}
		prev = current

		ch <- current.data
	}
}

func (s *OutputStorage) drainFrom(prev *node, ch chan<- []byte) {
	for current := prev.next.Load(); current != nil; current = current.next.Load() {
		ch <- current.data
	}
}

// Subscribe returns a channel replaying every stored chunk from the start and
// then following new appends. The channel closes after Stop once everything
// has been delivered.
func (s *OutputStorage) Subscribe(capacity int) <-chan []byte {
	ch := make(chan []byte, capacity)
	notifier, err := s.notifier.Subscribe()
	if err == nil {
		go s.follow(notifier, ch)
	} else {
		go func() {
			s.drainFrom(s.head, ch)
			close(ch)
		}()
	}

	return ch
}

// ForEach iterates over all stored byte slices in insertion order.
// The iterator function receives each slice; if it returns false, iteration stops early.
func (s *OutputStorage) ForEach(iter func([]byte) bool) {
	if s == nil || iter == nil {
		return
	}
	cur := s.head.next.Load() // skip sentinel
	for cur != nil {
		if !iter(cur.data) {
			return
		}
		cur = cur.next.Load()
	}
}

// Bytes concatenates all stored byte slices into a single slice.
func (s *OutputStorage) Bytes() []byte {
	out := make([]byte, 0, s.Len())
	s.ForEach(func(b []byte) bool {
		out = append(out, b...)
		return true
	})
	return out
}

// String returns all stored byte slices concatenated into a single string.
func (s *OutputStorage) String() string {
	return string(s.Bytes())
}
