// Package pubsub implements the process-wide channel registry behind
// SUBSCRIBE/UNSUBSCRIBE/PUBLISH: a map from channel name to its set of
// subscribers, with its own mutex independent of any database lock.
package pubsub

import "sync"

// Message is one published payload, destined for every current
// subscriber of Channel.
type Message struct {
	Channel string
	Payload []byte
}

// Registry is the process-wide set of pub/sub channels.
type Registry struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	ch chan Message
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscription is a single connection's handle on one channel's stream
// of messages.
type Subscription struct {
	Messages <-chan Message

	registry *Registry
	channel  string
	sub      *subscriber
	done     chan struct{}
	once     sync.Once
}

// Subscribe registers a new subscriber on channel and returns a
// Subscription carrying the receive-only message stream; call Unsubscribe
// when the connection drops or issues UNSUBSCRIBE.
func (r *Registry) Subscribe(channel string) *Subscription {
	s := &subscriber{ch: make(chan Message, 64)}

	r.mu.Lock()
	set, ok := r.subs[channel]
	if !ok {
		set = make(map[*subscriber]struct{})
		r.subs[channel] = set
	}
	set[s] = struct{}{}
	r.mu.Unlock()

	return &Subscription{Messages: s.ch, registry: r, channel: channel, sub: s, done: make(chan struct{})}
}

// Unsubscribe removes this subscription from its channel. Safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	r := s.registry
	r.mu.Lock()
	if set, ok := r.subs[s.channel]; ok {
		delete(set, s.sub)
		if len(set) == 0 {
			delete(r.subs, s.channel)
		}
	}
	r.mu.Unlock()
	s.once.Do(func() { close(s.done) })
}

// Done returns a channel closed once Unsubscribe has run, so a forwarder
// goroutine reading Messages knows when to stop.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Publish delivers payload to every current subscriber of channel and
// returns how many subscribers received it. Delivery takes a snapshot of
// the subscriber set before sending, so a concurrent Subscribe or
// Unsubscribe during fan-out is safe and never observed mid-iteration
// (spec.md §4.9: "publish traversal takes a snapshot of subscribers").
// A subscriber whose buffer is full is skipped rather than blocked on,
// so one slow reader cannot stall PUBLISH for everyone else.
func (r *Registry) Publish(channel string, payload []byte) int {
	r.mu.Lock()
	set := r.subs[channel]
	snapshot := make([]*subscriber, 0, len(set))
	for s := range set {
		snapshot = append(snapshot, s)
	}
	r.mu.Unlock()

	msg := Message{Channel: channel, Payload: payload}
	delivered := 0
	for _, s := range snapshot {
		select {
		case s.ch <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

// ChannelCount returns the number of subscribers currently registered on
// channel, for PUBSUB NUMSUB-style introspection.
func (r *Registry) ChannelCount(channel string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[channel])
}
