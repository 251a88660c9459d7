package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func newTestConsumer(attempts int) *Consumer {
	return &Consumer{
		topic:        DefaultActivityTopic,
		groupID:      "test",
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxAttempts:  attempts,
		retryBackoff: time.Millisecond,
	}
}

func TestConsumer_Deliver(t *testing.T) {
	msg := kafka.Message{Key: []byte("txn-1"), Value: []byte(`{"type":"payment.completed"}`)}

	t.Run("passes key and payload", func(t *testing.T) {
		c := newTestConsumer(3)

		var gotKey, gotPayload string
		err := c.deliver(context.Background(), msg, func(_ context.Context, key string, payload []byte) error {
			gotKey, gotPayload = key, string(payload)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotKey != "txn-1" || gotPayload != string(msg.Value) {
			t.Errorf("unexpected delivery: key=%q payload=%q", gotKey, gotPayload)
		}
	})

	t.Run("retries until success", func(t *testing.T) {
		c := newTestConsumer(3)

		calls := 0
		err := c.deliver(context.Background(), msg, func(context.Context, string, []byte) error {
			calls++
			if calls < 2 {
				return errors.New("temporary")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 2 {
			t.Errorf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		c := newTestConsumer(3)
		handlerErr := errors.New("bad payload")

		calls := 0
		err := c.deliver(context.Background(), msg, func(context.Context, string, []byte) error {
			calls++
			return handlerErr
		})
		if !errors.Is(err, handlerErr) {
			t.Fatalf("expected handler error, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("stops retrying when context is cancelled", func(t *testing.T) {
		c := newTestConsumer(5)
		c.retryBackoff = time.Hour

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := c.deliver(ctx, msg, func(context.Context, string, []byte) error {
			calls++
			cancel()
			return errors.New("fail")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})
}

func TestWithRetry(t *testing.T) {
	cfg := consumerConfig{}
	WithRetry(0, time.Second)(&cfg)

	if cfg.maxAttempts != 1 {
		t.Errorf("expected attempts clamped to 1, got %d", cfg.maxAttempts)
	}
	if cfg.retryBackoff != time.Second {
		t.Errorf("expected backoff 1s, got %s", cfg.retryBackoff)
	}
}
