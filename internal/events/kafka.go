package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the forwarder uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder streams every domain event to a Kafka topic.
type KafkaForwarder struct {
	writer  MessageWriter
	timeout time.Duration
	logger  *zerolog.Logger
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaForwarder(writer MessageWriter, timeout time.Duration, logger *zerolog.Logger) *KafkaForwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaForwarder{writer: writer, timeout: timeout, logger: logger}
}

type envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Handle is an EventHandler. Messages are keyed by event type and entity id so that
// all changes of one booking land on the same partition.
func (f *KafkaForwarder) Handle(event *Event) error {
	value, err := json.Marshal(envelope{Type: event.Type, OccurredAt: event.CreatedAt, Payload: event.Payload})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	err = f.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(messageKey(event)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s to kafka: %w", event.Type, err)
	}

	f.logger.Debug().Str("event_type", event.Type).Msg("Event forwarded to Kafka")
	return nil
}

func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

func messageKey(event *Event) string {
	var ids struct {
		BookingID int64 `json:"booking_id"`
		EventID   int64 `json:"event_id"`
	}
	_ = json.Unmarshal(event.Payload, &ids)
	switch {
	case ids.BookingID != 0:
		return fmt.Sprintf("booking-%d", ids.BookingID)
	case ids.EventID != 0:
		return fmt.Sprintf("event-%d", ids.EventID)
	default:
		return event.Type
	}
}
