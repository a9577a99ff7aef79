package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus(nil)

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingRequested, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventBookingRequested, map[string]string{"foo": "bar"})
	require.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, EventBookingRequested, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, "bar", decoded["foo"])
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	logger := zerolog.Nop()
	bus := NewEventBus(&logger)
	var count1, count2 int

	// A failing handler must not stop the next one.
	bus.Subscribe("event", func(_ *Event) error { count1++; return errors.New("smtp down") })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})
	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus(nil)
	seen := map[string]int{}
	bus.SubscribeAll(func(e *Event) error { seen[e.Type]++; return nil })

	for _, typ := range AllTypes {
		require.NoError(t, bus.PublishJSON(typ, nil))
	}
	assert.Len(t, seen, len(AllTypes))
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	assert.NotPanics(t, func() { bus.Publish(&Event{Type: "unknown"}) })
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON("unknown", nil))
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent("type", BookingEventPayload{BookingID: 123})
	require.NoError(t, err)
	assert.Equal(t, "type", event.Type)

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, int64(123), decoded.BookingID)

	_, err = NewJSONEvent("type", make(chan int))
	assert.Error(t, err)
}
