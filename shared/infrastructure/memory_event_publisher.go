package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/logging"
	"go.uber.org/zap"
)

var _ events.Publisher = (*MemoryEventPublisher)(nil)

// MemoryEventPublisher records published events. Used when running without AWS and in tests.
type MemoryEventPublisher struct {
	mux    sync.Mutex
	events []*events.Event
}

// NewMemoryEventPublisher creates a new MemoryEventPublisher
func NewMemoryEventPublisher() *MemoryEventPublisher {
	return &MemoryEventPublisher{}
}

func (p *MemoryEventPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	p.mux.Lock()
	defer p.mux.Unlock()

	for _, evt := range evts {
		p.events = append(p.events, evt.Clone())
		logging.FromContext(ctx).Debug("event published",
			zap.String("event_type", evt.EventType),
			zap.String("aggregate_id", evt.AggregateID.String()),
		)
	}
	return nil
}

// Events returns a copy of everything published so far
func (p *MemoryEventPublisher) Events() []*events.Event {
	p.mux.Lock()
	defer p.mux.Unlock()

	out := make([]*events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Types returns the event types in publish order
func (p *MemoryEventPublisher) Types() []string {
	p.mux.Lock()
	defer p.mux.Unlock()

	out := make([]string, len(p.events))
	for i, evt := range p.events {
		out[i] = evt.EventType
	}
	return out
}

// Reset forgets recorded events
func (p *MemoryEventPublisher) Reset() {
	p.mux.Lock()
	defer p.mux.Unlock()
	p.events = nil
}
