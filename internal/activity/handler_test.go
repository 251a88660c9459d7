package activity

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joao-fontenele/storefront-client/internal/domain"
)

func TestHandler_Handle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("counts known events", func(t *testing.T) {
		h := NewHandler(logger)
		events := []domain.ActivityEvent{
			{Type: domain.EventItemCreated, ItemID: "1", Timestamp: time.Now()},
			{Type: domain.EventPaymentCompleted, TransactionID: "t1", Amount: "19.99"},
			{Type: domain.EventPaymentCompleted, TransactionID: "t2", Amount: "5.00"},
			{Type: domain.EventPaymentFailed, TransactionID: "t3"},
		}
		for _, e := range events {
			payload, _ := json.Marshal(e)
			if err := h.Handle(context.Background(), "k", payload); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		counts := h.Counts()
		if counts[domain.EventItemCreated] != 1 || counts[domain.EventPaymentCompleted] != 2 || counts[domain.EventPaymentFailed] != 1 {
			t.Errorf("unexpected counts %v", counts)
		}
	})

	t.Run("skips unknown type", func(t *testing.T) {
		h := NewHandler(logger)
		if err := h.Handle(context.Background(), "k", []byte(`{"type":"order.shipped"}`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(h.Counts()) != 0 {
			t.Errorf("expected no counts, got %v", h.Counts())
		}
	})

	t.Run("invalid payload is an error", func(t *testing.T) {
		h := NewHandler(logger)
		if err := h.Handle(context.Background(), "k", []byte(`not json`)); err == nil {
			t.Error("expected error")
		}
	})
}
