package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaForwarder_Handle(t *testing.T) {
	logger := zerolog.Nop()
	w := &fakeWriter{}
	f := NewKafkaForwarder(w, time.Second, &logger)

	bus := NewEventBus(&logger)
	bus.SubscribeAll(f.Handle)

	require.NoError(t, bus.PublishJSON(EventBookingAccepted, BookingEventPayload{BookingID: 9, Status: "accepted"}))
	require.NoError(t, bus.PublishJSON(EventEventPublished, EventEventPayload{EventID: 4, Slug: "a-at-v"}))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "booking-9", string(w.msgs[0].Key))
	assert.Equal(t, "event-4", string(w.msgs[1].Key))
	assert.Equal(t, EventEventPublished, string(w.msgs[1].Headers[0].Value))

	var env envelope
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &env))
	assert.Equal(t, EventBookingAccepted, env.Type)

	var payload BookingEventPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "accepted", payload.Status)
}

func TestKafkaForwarder_Error(t *testing.T) {
	logger := zerolog.Nop()
	f := NewKafkaForwarder(&fakeWriter{err: errors.New("broker down")}, 0, &logger)

	err := f.Handle(&Event{Type: EventBookingDeclined, Payload: []byte(`{}`)})
	assert.Error(t, err)
	assert.NoError(t, f.Close())
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "gigbook.events")
	assert.Equal(t, "gigbook.events", w.Topic)
	assert.NoError(t, w.Close())
}
