package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler processes a single decoded event. Returning an error triggers a
// bounded retry before the message is committed and skipped.
type Handler func(ctx context.Context, event *Event) error

// maxHandlerRetries bounds in-process redelivery for a failing message before
// it is committed and skipped, so a poison pill cannot stall the partition.
const maxHandlerRetries = 3

// ConsumerConfig holds configuration for a Kafka consumer.
type ConsumerConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	MinBytes       int
	MaxBytes       int
	CommitInterval time.Duration
	StartOffset    int64
}

// Consumer wraps a kafka-go reader with retry handling and structured logging.
type Consumer struct {
	reader  *kafka.Reader
	handler Handler
	logger  *slog.Logger
	topic   string
	groupID string
}

// NewConsumer creates a new Kafka consumer for the given topic and group.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6
	}
	if cfg.CommitInterval == 0 {
		cfg.CommitInterval = time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: cfg.CommitInterval,
		StartOffset:    cfg.StartOffset,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
		logger:  logger,
		topic:   cfg.Topic,
		groupID: cfg.GroupID,
	}
}

// Run consumes messages until the context is cancelled. Decode failures and
// messages that exhaust their retries are committed and skipped.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("kafka consumer started",
		slog.String("topic", c.topic),
		slog.String("group_id", c.groupID))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.logger.Info("kafka consumer stopping", slog.String("topic", c.topic))
				return nil
			}
			c.logger.Error("fetch message failed",
				slog.String("topic", c.topic),
				slog.String("error", err.Error()))
			continue
		}

		event, err := UnmarshalEvent(msg.Value)
		if err != nil {
			c.logger.Error("undecodable message skipped",
				slog.String("topic", c.topic),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()))
			c.commit(ctx, msg)
			continue
		}

		if err := c.handleWithRetry(ctx, event); err != nil {
			c.logger.Error("message dropped after retries",
				slog.String("topic", c.topic),
				slog.String("event_id", event.EventID),
				slog.String("event_type", event.EventType),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()))
		}

		c.commit(ctx, msg)
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, event *Event) error {
	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		lastErr = c.handler(ctx, event)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("handler failed, retrying",
			slog.String("event_id", event.EventID),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	return lastErr
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("commit failed",
			slog.String("topic", c.topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()))
	}
}

// Close shuts down the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
