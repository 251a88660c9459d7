package messaging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var consumerTracer = otel.Tracer("messaging/consumer")

// HandlerFunc processes one event. A failing event is retried up to the
// consumer's attempt limit, then logged and committed so the stream moves on.
type HandlerFunc func(ctx context.Context, key string, payload []byte) error

type Consumer struct {
	reader       *kafka.Reader
	topic        string
	groupID      string
	logger       *slog.Logger
	maxAttempts  int
	retryBackoff time.Duration
}

type consumerConfig struct {
	reader       kafka.ReaderConfig
	logger       *slog.Logger
	maxAttempts  int
	retryBackoff time.Duration
}

type ConsumerOption func(*consumerConfig)

func WithStartOffset(offset int64) ConsumerOption {
	return func(cfg *consumerConfig) {
		cfg.reader.StartOffset = offset
	}
}

// WithMaxWait bounds how long a fetch waits for new events.
func WithMaxWait(d time.Duration) ConsumerOption {
	return func(cfg *consumerConfig) {
		cfg.reader.MaxWait = d
	}
}

func WithLogger(logger *slog.Logger) ConsumerOption {
	return func(cfg *consumerConfig) {
		cfg.logger = logger
	}
}

// WithRetry sets the attempts per event and the pause between them.
// Attempts below one are treated as one.
func WithRetry(attempts int, backoff time.Duration) ConsumerOption {
	return func(cfg *consumerConfig) {
		cfg.maxAttempts = max(attempts, 1)
		cfg.retryBackoff = backoff
	}
}

func NewConsumer(brokers []string, topic, groupID string, opts ...ConsumerOption) *Consumer {
	cfg := consumerConfig{
		reader: kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
			MaxWait: time.Second,
		},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxAttempts:  3,
		retryBackoff: 200 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer{
		reader:       kafka.NewReader(cfg.reader),
		topic:        topic,
		groupID:      groupID,
		logger:       cfg.logger,
		maxAttempts:  cfg.maxAttempts,
		retryBackoff: cfg.retryBackoff,
	}
}

// Consume blocks until ctx is done or the reader fails. Handler failures do
// not stop it.
func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		if err := c.deliver(ctx, msg, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("dropping activity event",
				"error", err,
				"topic", c.topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, msg kafka.Message, handler HandlerFunc) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err = c.processMessage(ctx, msg, attempt, handler); err == nil {
			return nil
		}
		if attempt == c.maxAttempts {
			break
		}

		c.logger.Warn("activity event failed, retrying", "error", err, "offset", msg.Offset, "attempt", attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryBackoff):
		}
	}
	return err
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message, attempt int, handler HandlerFunc) error {
	parentCtx := otel.GetTextMapPropagator().Extract(ctx, NewMessageCarrier(&msg))

	spanCtx, span := consumerTracer.Start(parentCtx, "process "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.topic),
			semconv.MessagingKafkaConsumerGroup(c.groupID),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
			semconv.MessagingKafkaMessageKey(string(msg.Key)),
			attribute.Int("messaging.delivery.attempt", attempt),
		),
	)
	defer span.End()

	if err := handler(spanCtx, string(msg.Key), msg.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
