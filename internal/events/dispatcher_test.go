package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInMemoryDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers events to subscribers of the type", func(t *testing.T) {
		dispatcher := NewInMemoryDispatcher(nil)
		var received []Event
		dispatcher.Subscribe(EventSLAResponseBreached, func(_ context.Context, event Event) error {
			received = append(received, event)
			return nil
		})

		err := dispatcher.Publish(ctx, Event{ID: "e-1", Type: EventSLAResponseBreached, TicketID: "t-1"})

		assert.NoError(t, err)
		assert.Len(t, received, 1)
		assert.Equal(t, "t-1", received[0].TicketID)
	})

	t.Run("other event types are not delivered", func(t *testing.T) {
		dispatcher := NewInMemoryDispatcher(nil)
		var calls int
		dispatcher.Subscribe(EventSLAResponseBreached, func(context.Context, Event) error {
			calls++
			return nil
		})

		_ = dispatcher.Publish(ctx, Event{Type: EventTicketAutoReassigned})

		assert.Zero(t, calls)
	})

	t.Run("a failing handler does not block the rest", func(t *testing.T) {
		dispatcher := NewInMemoryDispatcher(nil)
		var second bool
		dispatcher.Subscribe(EventSLAEscalationRequired, func(context.Context, Event) error {
			return errors.New("handler failed")
		})
		dispatcher.Subscribe(EventSLAEscalationRequired, func(context.Context, Event) error {
			second = true
			return nil
		})

		err := dispatcher.Publish(ctx, Event{Type: EventSLAEscalationRequired})

		assert.NoError(t, err)
		assert.True(t, second)
	})

	t.Run("handler failures are logged with event context", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		dispatcher := NewInMemoryDispatcher(zap.New(core))
		dispatcher.Subscribe(EventSLAResponseBreached, func(context.Context, Event) error {
			return errors.New("webhook unreachable")
		})

		err := dispatcher.Publish(ctx, Event{ID: "e-1", Type: EventSLAResponseBreached, TicketID: "t-1"})

		assert.NoError(t, err)
		entries := logs.FilterMessage("event handler failed").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, string(EventSLAResponseBreached), fields["event_type"])
		assert.Equal(t, "t-1", fields["ticket_id"])
	})
}
