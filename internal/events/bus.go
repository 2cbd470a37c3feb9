package events

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Change describes a broadcast key mutation observed by other views of the
// same session. Carries both values so listeners can reconcile last-write-wins.
type Change struct {
	Key      string `json:"key"`
	NewValue string `json:"newValue"`
	OldValue string `json:"oldValue"`
}

// Handler consumes a broadcast change.
type Handler func(ctx context.Context, change Change)

// Publisher fans a change out to every listener of a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, change Change) error
}

// Bus is an in-process publish/subscribe fan-out. Delivery order between
// subscribers is unspecified.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]Handler
}

// Subscribe registers a handler for the topic and returns an unsubscribe func.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	if b == nil || h == nil {
		return func() {}
	}
	topic = strings.TrimSpace(topic)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[string]map[int]Handler)
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.next
	b.next++
	b.subs[topic][id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish dispatches the change to every subscriber of the topic.
func (b *Bus) Publish(ctx context.Context, topic string, change Change) error {
	if b == nil {
		return errors.New("events: bus not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("events: topic is required")
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, change)
	}
	return nil
}
