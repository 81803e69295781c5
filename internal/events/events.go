// Package events is the process-wide publish/subscribe bus that connects the
// session, directory and aggregator layers.
//
// Subscribers register once when their owner is constructed and call the
// returned cancel func on teardown. Delivery is synchronous and in
// subscription order; handlers must not block.
package events

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Topic names a kind of event.
type Topic string

const (
	// RefreshRequested asks every space listing to re-fetch. Published after a
	// subscription toggle.
	RefreshRequested Topic = "spaces.refresh"
	// AuthFailed is published once per request that came back 401. Every
	// listener treats it as a forced logout.
	AuthFailed Topic = "auth.failed"
	// SessionChanged is published after login, register, logout and init.
	SessionChanged Topic = "session.changed"
)

// Event is delivered to handlers.
type Event struct {
	Topic   Topic
	Payload any
}

// Handler processes one event.
type Handler func(Event)

type subscription struct {
	id      string
	topics  map[Topic]bool
	handler Handler
}

// Bus fans events out to subscribers. The zero value is not usable; call New.
type Bus struct {
	mu   sync.RWMutex
	subs []*subscription
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers handler for the given topics (all topics when none are
// given) and returns the func that removes it. Calling cancel twice is safe.
func (b *Bus) Subscribe(handler Handler, topics ...Topic) (cancel func()) {
	sub := &subscription{id: uuid.NewString(), handler: handler}
	if len(topics) > 0 {
		sub.topics = make(map[Topic]bool, len(topics))
		for _, t := range topics {
			sub.topics[t] = true
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(sub.id) })
	}
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers an event to every matching subscriber. A panicking handler
// is logged and does not stop delivery to the others.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.topics == nil || s.topics[topic] {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	ev := Event{Topic: topic, Payload: payload}
	for _, s := range targets {
		deliver(s, ev)
	}
}

func deliver(s *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("events: handler panicked", "topic", ev.Topic, "subscription", s.id, "panic", r)
		}
	}()
	s.handler(ev)
}
