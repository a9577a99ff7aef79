package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventBookingRequested = "booking_requested"
	EventBookingAccepted  = "booking_accepted"
	EventBookingDeclined  = "booking_declined"
	EventBookingCancelled = "booking_cancelled"

	EventEventRequested = "event_requested"
	EventEventPublished = "event_published"
	EventEventDeclined  = "event_declined"
	EventEventCancelled = "event_cancelled"
)

// AllTypes lists every event type the workflows publish.
var AllTypes = []string{
	EventBookingRequested, EventBookingAccepted, EventBookingDeclined, EventBookingCancelled,
	EventEventRequested, EventEventPublished, EventEventDeclined, EventEventCancelled,
}

// BookingEventPayload is the booking snapshot handed to subscribers after commit.
type BookingEventPayload struct {
	BookingID   int64     `json:"booking_id"`
	ArtistID    int64     `json:"artist_id"`
	ArtistName  string    `json:"artist_name"`
	ArtistEmail string    `json:"artist_email,omitempty"`
	VenueID     int64     `json:"venue_id"`
	VenueName   string    `json:"venue_name"`
	VenueEmail  string    `json:"venue_email,omitempty"`
	EventDate   time.Time `json:"event_date"`
	Hours       float64   `json:"hours"`
	Status      string    `json:"status"`
	Note        string    `json:"note,omitempty"`
	EventID     *int64    `json:"event_id,omitempty"`
	EventSlug   string    `json:"event_slug,omitempty"`
	ChangedByID int64     `json:"changed_by_id,omitempty"`
}

// EventEventPayload describes a change of a venue event.
type EventEventPayload struct {
	EventID     int64     `json:"event_id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	StartAt     time.Time `json:"start_at"`
	VenueID     int64     `json:"venue_id"`
	VenueName   string    `json:"venue_name"`
	VenueEmail  string    `json:"venue_email,omitempty"`
	ArtistID    int64     `json:"artist_id,omitempty"`
	ArtistName  string    `json:"artist_name,omitempty"`
	ArtistEmail string    `json:"artist_email,omitempty"`
	ChangedByID int64     `json:"changed_by_id,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus. Handler errors are logged to logger when it is not nil.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers handler for every type in AllTypes.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	for _, t := range AllTypes {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type. Handler failures never reach the publisher.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && b.logger != nil {
			b.logger.Warn().Err(err).Str("event_type", event.Type).Msg("Event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
