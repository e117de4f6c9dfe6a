package broadcast

import (
	"errors"
	"sync"
	"sync/atomic"
)

// DropPolicy decides what a full subscriber queue loses when a new message
// arrives.
type DropPolicy int

const (
	// DropOldest evicts the oldest queued message to make room for the new one.
	DropOldest DropPolicy = iota
	// DropNewest keeps the queue as is and discards the new message.
	DropNewest
)

func (p DropPolicy) String() string {
	switch p {
	case DropOldest:
		return "drop-oldest"
	case DropNewest:
		return "drop-newest"
	default:
		return "unknown"
	}
}

// ErrStopped is returned when subscribing to a stopped Broadcaster.
var ErrStopped = errors.New("failed to subscribe: broadcaster is stopped")

type options struct {
	capacity int
	policy   DropPolicy
}

// Option configures a Broadcaster.
type Option func(*options)

// WithCapacity sets the default per-subscriber queue length. Values below 1
// are raised to 1.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithDropPolicy sets what happens when a subscriber queue is full.
func WithDropPolicy(p DropPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// Broadcaster fans every published message out to all current subscribers.
//
// Publish never blocks: each subscriber owns a bounded queue and a full queue
// is resolved by the configured DropPolicy. Messages reach each subscriber in
// publish order.
type Broadcaster[T any] struct {
	mu          sync.Mutex
	subscribers map[<-chan T]chan T
	stopped     bool

	capacity int
	policy   DropPolicy
	dropped  atomic.Uint64
}

func NewBroadcaster[T any](opts ...Option) *Broadcaster[T] {
	o := options{capacity: 1, policy: DropOldest}
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity < 1 {
		o.capacity = 1
	}

	return &Broadcaster[T]{
		subscribers: make(map[<-chan T]chan T),
		capacity:    o.capacity,
		policy:      o.policy,
	}
}

// Stop closes every subscriber channel. Publishing afterwards is a no-op.
func (broadcaster *Broadcaster[T]) Stop() {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()

	if broadcaster.stopped {
		return
	}
	for _, ch := range broadcaster.subscribers {
		close(ch)
	}
	broadcaster.subscribers = make(map[<-chan T]chan T)
	broadcaster.stopped = true
}

// Stopped reports whether Stop has been called.
func (broadcaster *Broadcaster[T]) Stopped() bool {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	return broadcaster.stopped
}

// Subscribe registers a subscriber with the default queue length.
func (broadcaster *Broadcaster[T]) Subscribe() (<-chan T, error) {
	return broadcaster.SubscribeWithCapacity(broadcaster.capacity)
}

// SubscribeWithCapacity registers a subscriber with its own queue length.
func (broadcaster *Broadcaster[T]) SubscribeWithCapacity(capacity int) (<-chan T, error) {
	if capacity < 1 {
		capacity = 1
	}
	ch := make(chan T, capacity)

	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if broadcaster.stopped {
		return nil, ErrStopped
	}
	broadcaster.subscribers[ch] = ch
	return ch, nil
}

// Unsubscribe removes and closes the subscriber channel. Unknown channels are
// ignored.
func (broadcaster *Broadcaster[T]) Unsubscribe(ch <-chan T) {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()

	sender, ok := broadcaster.subscribers[ch]
	if !ok {
		return
	}
	delete(broadcaster.subscribers, ch)
	close(sender)
}

// Len returns the number of current subscribers.
func (broadcaster *Broadcaster[T]) Len() int {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	return len(broadcaster.subscribers)
}

// Dropped returns how many deliveries were lost to full queues.
func (broadcaster *Broadcaster[T]) Dropped() uint64 {
	return broadcaster.dropped.Load()
}

// Publish delivers msg to every subscriber and returns how many queues
// accepted it.
func (broadcaster *Broadcaster[T]) Publish(msg T) int {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()

	if broadcaster.stopped {
		return 0
	}

	delivered := 0
	for _, s := range broadcaster.subscribers {
		select {
		case s <- msg:
			delivered++
			continue
		default:
		}

		if broadcaster.policy == DropNewest {
			broadcaster.dropped.Add(1)
			continue
		}

		// queue is full, evict the oldest entry
		select {
		case <-s:
			broadcaster.dropped.Add(1)
		default:
		}
		select {
		case s <- msg:
			delivered++
		default:
			broadcaster.dropped.Add(1)
		}
	}

	return delivered
}
