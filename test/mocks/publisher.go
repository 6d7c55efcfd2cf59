package mocks

import (
	"context"
	"sync"
)

// PublishedEvent captures one Publish call.
type PublishedEvent struct {
	Subject string
	Type    string
	Data    interface{}
}

// RecordingPublisher implements eventbus.Publisher and records every event
// for assertion. Set Err to simulate a bus failure.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
	Err    error
}

// Publish records the event.
func (p *RecordingPublisher) Publish(ctx context.Context, subject, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, PublishedEvent{Subject: subject, Type: eventType, Data: data})
	return nil
}

// Last returns the most recently recorded event, or nil.
func (p *RecordingPublisher) Last() *PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Events) == 0 {
		return nil
	}
	return &p.Events[len(p.Events)-1]
}

// CountType returns how many events of the given type were recorded.
func (p *RecordingPublisher) CountType(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.Events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
