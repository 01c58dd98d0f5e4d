package eventbus

import (
	"sync"
)

// NopPublisher discards everything, for wiring tests that do not care
// about the bus.
type NopPublisher struct{}

func (NopPublisher) Publish(topic string, data any) error { return nil }
func (NopPublisher) CreateTopic(topic string) error       { return nil }
func (NopPublisher) Stop()                                {}

// TestPublisher records published events per topic for assertions. It is
// safe for concurrent use.
type TestPublisher struct {
	mu     sync.Mutex
	events map[string][]any
}

func NewTestPublisher() *TestPublisher {
	return &TestPublisher{events: make(map[string][]any)}
}

func (p *TestPublisher) Publish(topic string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[topic] = append(p.events[topic], data)
	return nil
}

func (p *TestPublisher) CreateTopic(topic string) error { return nil }
func (p *TestPublisher) Stop()                          {}

// Events returns everything published to a topic so far.
func (p *TestPublisher) Events(topic string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any{}, p.events[topic]...)
}
