// Package events delivers supervisor log and status events to subscribers.
package events

import (
	"context"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/broadcast"
	"go.uber.org/zap"
)

// DefaultCapacity is the per-subscriber queue length used by Subscribe when
// no capacity is given.
const DefaultCapacity = 256

// Bus broadcasts lifecycle events. Emission never blocks the caller: a
// subscriber whose queue is full loses events according to the drop policy,
// and emitting with no subscriber is a silent no-op.
type Bus struct {
	broadcaster *broadcast.Broadcaster[lib.Event]
	logger      *zap.Logger
}

type config struct {
	capacity int
	policy   broadcast.DropPolicy
	logger   *zap.Logger
}

// Option configures a Bus.
type Option func(*config)

func WithCapacity(n int) Option {
	return func(c *config) { c.capacity = n }
}

func WithDropPolicy(p broadcast.DropPolicy) Option {
	return func(c *config) { c.policy = p }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func NewBus(opts ...Option) *Bus {
	c := config{capacity: DefaultCapacity, policy: broadcast.DropOldest, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&c)
	}
	return &Bus{
		broadcaster: broadcast.NewBroadcaster[lib.Event](broadcast.WithCapacity(c.capacity), broadcast.WithDropPolicy(c.policy)),
		logger:      c.logger,
	}
}

// EmitLog publishes on the log topic.
func (b *Bus) EmitLog(e lib.LogEvent) {
	b.publish(lib.Event{Topic: lib.TopicLog, Log: &e})
}

// EmitStatus publishes on the status topic.
func (b *Bus) EmitStatus(e lib.StatusEvent) {
	b.publish(lib.Event{Topic: lib.TopicStatus, Status: &e})
}

func (b *Bus) publish(e lib.Event) {
	if n := b.broadcaster.Publish(e); n == 0 {
		b.logger.Debug("event not delivered", zap.String("topic", string(e.Topic)))
	}
}

// Subscribe registers a consumer. capacity <= 0 selects DefaultCapacity.
// With no topics every event is delivered.
func (b *Bus) Subscribe(capacity int, topics ...lib.Topic) (*Subscription, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	ch, err := b.broadcaster.SubscribeWithCapacity(capacity)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{ID: lib.NewID(), ch: ch, bus: b}
	if len(topics) > 0 {
		sub.topics = make(map[lib.Topic]struct{}, len(topics))
		for _, t := range topics {
			sub.topics[t] = struct{}{}
		}
	}
	b.logger.Debug("subscriber added", zap.String("subscription", sub.ID))
	return sub, nil
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	return b.broadcaster.Len()
}

// Dropped returns how many deliveries were lost to full queues.
func (b *Bus) Dropped() uint64 {
	return b.broadcaster.Dropped()
}

// Close ends every subscription.
func (b *Bus) Close() {
	b.broadcaster.Stop()
}

// Subscription is one consumer's view of the bus.
type Subscription struct {
	ID     string
	ch     <-chan lib.Event
	topics map[lib.Topic]struct{}
	bus    *Bus
}

// C returns the raw event channel, unfiltered by topic. It is closed when
// the subscription or the bus is closed.
func (s *Subscription) C() <-chan lib.Event {
	return s.ch
}

// Next blocks until an event on one of the subscribed topics arrives. It
// returns false once the subscription is closed or ctx is done.
func (s *Subscription) Next(ctx context.Context) (lib.Event, bool) {
	for {
		select {
		case <-ctx.Done():
			return lib.Event{}, false
		case e, ok := <-s.ch:
			if !ok {
				return lib.Event{}, false
			}
			if s.wants(e.Topic) {
				return e, true
			}
		}
	}
}

func (s *Subscription) wants(t lib.Topic) bool {
	if s.topics == nil {
		return true
	}
	_, ok := s.topics[t]
	return ok
}

func (s *Subscription) Close() {
	s.bus.broadcaster.Unsubscribe(s.ch)
}
