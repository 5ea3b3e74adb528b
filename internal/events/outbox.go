package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outbox collects events raised while serving a request so they can be
// dispatched after the response is written.
type Outbox struct {
	mu     sync.Mutex
	events []Event
}

type outboxKey struct{}

// NewOutbox returns an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// WithOutbox attaches box to ctx.
func WithOutbox(ctx context.Context, box *Outbox) context.Context {
	return context.WithValue(ctx, outboxKey{}, box)
}

// OutboxFrom returns the outbox attached to ctx, if any.
func OutboxFrom(ctx context.Context) (*Outbox, bool) {
	box, ok := ctx.Value(outboxKey{}).(*Outbox)
	return box, ok && box != nil
}

// Add appends an event.
func (o *Outbox) Add(event Event) {
	o.mu.Lock()
	o.events = append(o.events, event)
	o.mu.Unlock()
}

// Drain removes and returns every pending event in insertion order.
func (o *Outbox) Drain() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	pending := o.events
	o.events = nil
	return pending
}

// Len reports the number of pending events.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

// Flush publishes every pending event through d.
func (o *Outbox) Flush(ctx context.Context, d Dispatcher) {
	for _, event := range o.Drain() {
		_ = d.Publish(ctx, event)
	}
}

// Emit stamps the event and either queues it on the request outbox or,
// when ctx carries none, publishes it synchronously.
func Emit(ctx context.Context, d Dispatcher, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if box, ok := OutboxFrom(ctx); ok {
		box.Add(event)
		return
	}
	if d != nil {
		_ = d.Publish(ctx, event)
	}
}
