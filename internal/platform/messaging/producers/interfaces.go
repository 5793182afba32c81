package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes domain events to a primary topic. The
// reconciliation engine's side-effect runner depends on this rather than on
// a concrete producer.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher routes unprocessable messages to a dead letter topic
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
