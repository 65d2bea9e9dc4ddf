package checkout

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderConfirmed  = "OrderConfirmed"
	EventCheckoutStarted = "CheckoutStarted"
)

type Envelope struct {
	EventID       string          `json:"event_id"` // uuid
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "checkout-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ConfirmedLine struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderConfirmedPayload struct {
	OrderID       string            `json:"order_id"`
	OrderNumber   string            `json:"order_number"`
	SessionID     string            `json:"session_id"`
	OwnerID       string            `json:"owner_id"`
	Items         []ConfirmedLine   `json:"items"`
	PaymentMethod PaymentMethodType `json:"payment_method"`
	Total         decimal.Decimal   `json:"total"`
	Currency      string            `json:"currency"`
}

type CheckoutStartedPayload struct {
	SessionID string          `json:"session_id"`
	OwnerID   string          `json:"owner_id"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}
