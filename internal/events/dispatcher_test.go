package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishInvokesSubscribersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher()

	var order []string
	d.Subscribe(EventViolationDetected, func(_ context.Context, e Event) error {
		order = append(order, "first:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventViolationDetected, func(_ context.Context, e Event) error {
		order = append(order, "second:"+e.TicketID)
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventViolationDetected, TicketID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:t1", "second:t1"}, order)
}

func TestPublishOnlyMatchingType(t *testing.T) {
	d := NewInMemoryDispatcher()

	calls := 0
	d.Subscribe(EventEscalationTriggered, func(context.Context, Event) error {
		calls++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventViolationDetected}))
	assert.Zero(t, calls)

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventEscalationTriggered}))
	assert.Equal(t, 1, calls)
}

func TestPublishContinuesPastHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()

	var reached bool
	d.Subscribe(EventViolationResolved, func(context.Context, Event) error {
		return errors.New("handler blew up")
	})
	d.Subscribe(EventViolationResolved, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventViolationResolved})
	require.NoError(t, err)
	assert.True(t, reached)
}

func TestPublishWithNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventEscalationResolved}))
}
