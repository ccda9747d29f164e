package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID       string `json:"order_id"`
	UserID        string `json:"user_id"`
	TotalCents    int64  `json:"total_cents"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
}

type OrderStatusChangedPayload struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	RiderID    string `json:"rider_id,omitempty"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}
