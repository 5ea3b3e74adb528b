package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcherContinuesAfterHandlerFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var failed []EventType
	d := NewInMemoryDispatcher(zap.New(core), WithErrorHook(func(et EventType) { failed = append(failed, et) }))

	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		panic("boom")
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, []EventType{EventTicketCreated, EventTicketCreated}, failed)
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("event handler panicked").Len())
}

func TestDispatcherReportsPanicToErrorHook(t *testing.T) {
	var failed []EventType
	d := NewInMemoryDispatcher(nil, WithErrorHook(func(et EventType) { failed = append(failed, et) }))
	d.Subscribe(EventCommentAdded, func(context.Context, Event) error {
		panic("nil map")
	})

	assert.NotPanics(t, func() {
		_ = d.Publish(context.Background(), Event{Type: EventCommentAdded, TicketID: "t1"})
	})
	assert.Equal(t, []EventType{EventCommentAdded}, failed)
}

func TestEmitQueuesOnOutboxAndPublishesWithout(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var seen []Event
	d.Subscribe(EventTicketAssigned, func(_ context.Context, e Event) error {
		seen = append(seen, e)
		return nil
	})

	box := NewOutbox()
	ctx := WithOutbox(context.Background(), box)
	Emit(ctx, d, Event{Type: EventTicketAssigned, TicketID: "t1"})
	Emit(ctx, d, Event{Type: EventTicketAssigned, TicketID: "t2"})

	assert.Empty(t, seen)
	assert.Equal(t, 2, box.Len())

	box.Flush(context.Background(), d)
	assert.Len(t, seen, 2)
	assert.Equal(t, "t1", seen[0].TicketID)
	assert.NotEmpty(t, seen[0].ID)
	assert.False(t, seen[0].Timestamp.IsZero())
	assert.Equal(t, 0, box.Len())

	Emit(context.Background(), d, Event{Type: EventTicketAssigned, TicketID: "t3"})
	assert.Len(t, seen, 3)
}
