package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

var meter = otel.Meter("activity")

// Handler records storefront activity events consumed from Kafka.
type Handler struct {
	logger *slog.Logger
	events metric.Int64Counter

	mu     sync.Mutex
	counts map[domain.EventType]int
}

func NewHandler(logger *slog.Logger) *Handler {
	counter, err := meter.Int64Counter("storefront.activity.events",
		metric.WithDescription("Activity events consumed by type"),
	)
	if err != nil {
		logger.Warn("failed to create activity counter", "error", err)
		counter = noop.Int64Counter{}
	}

	return &Handler{
		logger: logger,
		events: counter,
		counts: make(map[domain.EventType]int),
	}
}

func (h *Handler) Handle(ctx context.Context, key string, payload []byte) error {
	var event domain.ActivityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal activity event: %w", err)
	}

	switch event.Type {
	case domain.EventItemCreated:
		h.logger.Info("item created", "key", key, "item_id", event.ItemID, "name", event.ItemName, "category", event.Category)
	case domain.EventPaymentCompleted:
		h.logger.Info("payment completed", "key", key, "transaction_id", event.TransactionID, "method", event.PaymentMethod, "amount", event.Amount)
	case domain.EventPaymentFailed:
		h.logger.Warn("payment failed", "key", key, "transaction_id", event.TransactionID, "method", event.PaymentMethod, "amount", event.Amount)
	default:
		// Unknown types are skipped so newer producers do not stall the consumer.
		h.logger.Warn("skipping unknown activity event", "key", key, "type", event.Type)
		return nil
	}

	h.events.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(event.Type))))

	h.mu.Lock()
	h.counts[event.Type]++
	h.mu.Unlock()

	return nil
}

// Counts returns how many events of each known type were handled.
func (h *Handler) Counts() map[domain.EventType]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[domain.EventType]int, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}
