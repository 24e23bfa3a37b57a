package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string
	d.Subscribe(EventStateChanged, func(_ context.Context, e Event) error {
		seen = append(seen, "first")
		return errors.New("webhook down")
	})
	d.Subscribe(EventStateChanged, func(_ context.Context, e Event) error {
		seen = append(seen, "second")
		return nil
	})
	d.Subscribe(EventNoteAdded, func(_ context.Context, e Event) error {
		seen = append(seen, "note")
		return nil
	})

	err := d.Publish(context.Background(), New(EventStateChanged, 42, Actor{ID: 7}, StateChangedPayload{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook down")
	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestNewStampsEvent(t *testing.T) {
	e := New(EventTicketClaimed, 9, Actor{ID: 1, Username: "ana"}, TicketClaimedPayload{Mode: "solo"})
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, 9, e.TicketID)
	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), e))
}

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()
	delivered := false
	d.Subscribe(EventTicketClaimed, func(context.Context, Event) error { panic("boom") })
	d.Subscribe(EventTicketClaimed, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), New(EventTicketClaimed, 42, Actor{ID: 7}, TicketClaimedPayload{Mode: "solo"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticket_claimed ticket #42")
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, delivered)
	assert.Equal(t, 2, d.Handlers(EventTicketClaimed))
	assert.Zero(t, d.Handlers(EventNoteAdded))
}
