package crmsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JonMunkholm/intake/internal/logging"
)

// Publisher delivers one encoded message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
	Close() error
}

// KafkaConfig configures KafkaPublisher.
type KafkaConfig struct {
	Brokers      []string
	MaxAttempts  int
	BatchTimeout time.Duration
}

// KafkaPublisher writes messages with a shared kafka.Writer. The topic is
// set per message.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Gzip,
			MaxAttempts:  cfg.MaxAttempts,
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}
	logging.FromContext(ctx).Debug("kafka message sent", "topic", topic, "key", string(key))
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher writes messages to a logger. It is the default when no
// brokers are configured.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher logs to l, or to the context logger when l is nil.
func NewLogPublisher(l *slog.Logger) *LogPublisher {
	return &LogPublisher{log: l}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	log := p.log
	if log == nil {
		log = logging.FromContext(ctx)
	}
	log.Info("sync message", "topic", topic, "key", string(key), "value", string(value))
	return nil
}

// Close implements Publisher.
func (p *LogPublisher) Close() error { return nil }
