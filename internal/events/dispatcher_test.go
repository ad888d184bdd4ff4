package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var got []Event
	dispatcher.Subscribe(EventTicketUpdated, func(_ context.Context, event Event) error {
		got = append(got, event)
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventTicketUpdated, TicketID: "t1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].TicketID)

	// Unsubscribed types are dropped silently.
	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketDeleted, TicketID: "t2"}))
	assert.Len(t, got, 1)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var second bool
	dispatcher.Subscribe(EventCommentAdded, func(context.Context, Event) error {
		return errors.New("boom")
	})
	dispatcher.Subscribe(EventCommentAdded, func(context.Context, Event) error {
		second = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventCommentAdded}))
	assert.True(t, second)
}

func TestEventTopicIsPerTicket(t *testing.T) {
	event := Event{Type: EventTicketUpdated, TicketID: "abc-123"}
	assert.Equal(t, "tickets:abc-123:updates", event.Topic())
}
