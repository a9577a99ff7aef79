package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gigbook/internal/domain"
	"gigbook/internal/events"
	"gigbook/internal/metrics"
	"gigbook/internal/models"

	"github.com/rs/zerolog"
)

// Subscriber turns committed workflow events into emails. Delivery is best effort:
// failures are logged and counted, never propagated to the workflow.
type Subscriber struct {
	notifier domain.Notifier
	baseURL  string
	timeout  time.Duration
	logger   *zerolog.Logger
}

func NewSubscriber(notifier domain.Notifier, baseURL string, timeout time.Duration, logger *zerolog.Logger) *Subscriber {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Subscriber{notifier: notifier, baseURL: baseURL, timeout: timeout, logger: logger}
}

// Register subscribes the notifier to every workflow event.
func (s *Subscriber) Register(bus *events.EventBus) {
	bus.SubscribeAll(s.Handle)
}

func (s *Subscriber) Handle(event *events.Event) error {
	n, ok, err := s.build(event)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", event.Type).Msg("Failed to build notification")
		return nil
	}
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.notifier.Send(ctx, n); err != nil {
		metrics.IncNotification("failed")
		s.logger.Error().Err(err).Str("event_type", event.Type).Str("to", n.To).Msg("Failed to send notification")
		return nil
	}
	metrics.IncNotification("sent")
	s.logger.Debug().Str("event_type", event.Type).Str("to", n.To).Msg("Notification sent")
	return nil
}

func (s *Subscriber) build(event *events.Event) (models.Notification, bool, error) {
	switch {
	case strings.HasPrefix(event.Type, "booking_"):
		var p events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return models.Notification{}, false, fmt.Errorf("decode booking payload: %w", err)
		}
		return bookingNotification(event.Type, p, s.baseURL)
	case strings.HasPrefix(event.Type, "event_"):
		var p events.EventEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return models.Notification{}, false, fmt.Errorf("decode event payload: %w", err)
		}
		return eventNotification(event.Type, p, s.baseURL)
	default:
		return models.Notification{}, false, nil
	}
}
