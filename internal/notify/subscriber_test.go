package notify

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"gigbook/internal/events"
	"gigbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func newSubscriber(n *mockNotifier) (*Subscriber, *events.EventBus) {
	logger := zerolog.New(io.Discard)
	s := NewSubscriber(n, "https://gigbook.example.com/", time.Second, &logger)
	bus := events.NewEventBus(&logger)
	s.Register(bus)
	return s, bus
}

func booking() events.BookingEventPayload {
	return events.BookingEventPayload{
		BookingID: 7, ArtistName: "Luna Duo", ArtistEmail: "luna@example.com",
		VenueName: "Blue Note", VenueEmail: "venue@example.com",
		EventDate: time.Date(2025, 9, 12, 20, 0, 0, 0, time.UTC), Hours: 2, Note: "bring <amps>",
	}
}

func TestSubscriber_BookingRecipients(t *testing.T) {
	tests := []struct {
		eventType string
		to        string
		subject   string
	}{
		{events.EventBookingRequested, "luna@example.com", "New booking request from Blue Note"},
		{events.EventBookingAccepted, "venue@example.com", "Luna Duo accepted your booking"},
		{events.EventBookingDeclined, "venue@example.com", "Luna Duo declined your booking"},
		{events.EventBookingCancelled, "luna@example.com", "Blue Note cancelled a booking"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			n := new(mockNotifier)
			n.On("Send", mock.Anything, mock.MatchedBy(func(msg models.Notification) bool {
				return msg.To == tt.to && msg.Subject == tt.subject
			})).Return(nil).Once()

			_, bus := newSubscriber(n)
			require.NoError(t, bus.PublishJSON(tt.eventType, booking()))
			n.AssertExpectations(t)
		})
	}
}

func TestSubscriber_EscapesHTML(t *testing.T) {
	n := new(mockNotifier)
	var got models.Notification
	n.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(models.Notification)
	}).Return(nil)

	_, bus := newSubscriber(n)
	require.NoError(t, bus.PublishJSON(events.EventBookingRequested, booking()))

	assert.Contains(t, got.HTMLBody, "bring &lt;amps&gt;")
	assert.Contains(t, got.TextBody, "bring <amps>")
	assert.Contains(t, got.HTMLBody, "https://gigbook.example.com/bookings/7")
	assert.Contains(t, got.TextBody, "Fri 12 Sep 2025 20:00 UTC (2 h)")
}

func TestSubscriber_EventRecipients(t *testing.T) {
	payload := events.EventEventPayload{
		EventID: 3, Slug: "late-set", Title: "Late Set", StartAt: time.Date(2025, 9, 12, 22, 0, 0, 0, time.UTC),
		VenueName: "Blue Note", VenueEmail: "venue@example.com", ArtistName: "Luna Duo", ArtistEmail: "luna@example.com",
	}

	n := new(mockNotifier)
	n.On("Send", mock.Anything, mock.MatchedBy(func(msg models.Notification) bool {
		return msg.To == "venue@example.com" && msg.Subject == "Event request: Late Set"
	})).Return(nil).Once()
	n.On("Send", mock.Anything, mock.MatchedBy(func(msg models.Notification) bool {
		return msg.To == "luna@example.com" && msg.Subject == "Event confirmed: Late Set"
	})).Return(nil).Once()

	_, bus := newSubscriber(n)
	require.NoError(t, bus.PublishJSON(events.EventEventRequested, payload))
	require.NoError(t, bus.PublishJSON(events.EventEventPublished, payload))
	n.AssertExpectations(t)
}

func TestSubscriber_FailureIsSwallowed(t *testing.T) {
	n := new(mockNotifier)
	n.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	s, _ := newSubscriber(n)
	event, err := events.NewJSONEvent(events.EventBookingAccepted, booking())
	require.NoError(t, err)
	assert.NoError(t, s.Handle(&event))
}

func TestSubscriber_SkipsMissingRecipient(t *testing.T) {
	n := new(mockNotifier)
	s, _ := newSubscriber(n)

	p := booking()
	p.VenueEmail = ""
	event, err := events.NewJSONEvent(events.EventBookingDeclined, p)
	require.NoError(t, err)
	assert.NoError(t, s.Handle(&event))

	assert.NoError(t, s.Handle(&events.Event{Type: events.EventBookingAccepted, Payload: []byte("{broken")}))
	n.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestLogMailer(t *testing.T) {
	logger := zerolog.New(io.Discard)
	assert.NoError(t, NewLogMailer(&logger).Send(context.Background(), models.Notification{To: "x@example.com"}))
}
