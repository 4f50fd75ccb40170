package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"airline-reservation/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message headers set on every published event
const (
	HeaderEventType = "event-type"
	HeaderSource    = "source"
)

const (
	handleAttempts = 3
	handleBackoff  = 200 * time.Millisecond
)

// Producer writes domain events to one topic
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a new Kafka producer. Messages are partitioned by key
// so the events of one reservation stay ordered.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			BatchTimeout: 50 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
		},
		logger: util.GetLogger(),
	}
}

// PublishEvent encodes event as JSON and writes it under key
func (p *Producer) PublishEvent(ctx context.Context, key string, event interface{}) error {
	msg, err := encodeMessage(key, event, time.Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s to kafka: %w", eventType(event), err)
	}

	p.logger.Debug("Published event",
		zap.String("key", key),
		zap.String("type", eventType(event)))
	return nil
}

// Close flushes pending writes and closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encodeMessage(key string, event interface{}, now time.Time) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(eventType(event))},
			{Key: HeaderSource, Value: []byte(util.ServiceName)},
		},
	}, nil
}

func eventType(event interface{}) string {
	if typed, ok := event.(interface{ Type() string }); ok {
		return typed.Type()
	}
	return fmt.Sprintf("%T", event)
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Consumer reads domain events as part of a consumer group
type Consumer struct {
	reader *kafka.Reader
	logger *zap.Logger
}

// NewConsumer creates a new Kafka consumer. Offsets are committed
// explicitly after each message is handled.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     time.Second,
			StartOffset: kafka.FirstOffset,
		}),
		logger: util.GetLogger(),
	}
}

// Close closes the consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// MessageHandler is a function type for handling messages
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// StartConsuming fetches messages until ctx is done. Each message gets a few
// attempts with backoff; one that still fails is logged and committed so it
// does not block its partition.
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Starting Kafka consumer",
		zap.String("topic", c.reader.Config().Topic),
		zap.String("group", c.reader.Config().GroupID))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Consumer stopped")
				return ctx.Err()
			}
			c.logger.Error("Error fetching message", zap.Error(err))
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		typ := headerValue(msg, HeaderEventType)
		if err := handleWithRetry(ctx, handler, msg, handleAttempts, handleBackoff); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			util.EventsConsumedTotal.WithLabelValues(typ, "dropped").Inc()
			c.logger.Error("Dropping message after retries",
				zap.String("type", typ),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		} else {
			util.EventsConsumedTotal.WithLabelValues(typ, "ok").Inc()
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Error committing message", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// handleWithRetry calls handler up to attempts times, doubling the wait
// between tries.
func handleWithRetry(ctx context.Context, handler MessageHandler, msg kafka.Message, attempts int, backoff time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if i == attempts || !sleep(ctx, backoff) {
			break
		}
		backoff *= 2
	}
	return err
}

// sleep waits for d and reports false if ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
