package domain

import "time"

type EventType string

const (
	EventItemCreated      EventType = "item.created"
	EventPaymentCompleted EventType = "payment.completed"
	EventPaymentFailed    EventType = "payment.failed"
)

// ActivityEvent is published after a controller's network call settles.
type ActivityEvent struct {
	Type          EventType     `json:"type"`
	ItemID        string        `json:"item_id,omitempty"`
	ItemName      string        `json:"item_name,omitempty"`
	Category      Category      `json:"category,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	Amount        string        `json:"amount,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}
