package checkout

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethodType string

const (
	MethodCard           PaymentMethodType = "card"
	MethodMobileMoney    PaymentMethodType = "mobile_money"
	MethodBankTransfer   PaymentMethodType = "bank_transfer"
	MethodCashOnDelivery PaymentMethodType = "cash_on_delivery"
	// legacy alias still sent by older gateways
	MethodCOD PaymentMethodType = "cod"
)

type PaymentMethod struct {
	ID          string            `json:"id"`
	Type        PaymentMethodType `json:"type"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Enabled     bool              `json:"enabled"`
}

type IntentStatus string

const (
	IntentPending        IntentStatus = "pending"
	IntentProcessing     IntentStatus = "processing"
	IntentRequiresAction IntentStatus = "requires_action"
	IntentSucceeded      IntentStatus = "succeeded"
	IntentFailed         IntentStatus = "failed"
	IntentCancelled      IntentStatus = "cancelled"
)

// Settled reports whether the intent is in a state that allows the flow to
// move on toward review. COD and bank-transfer intents sit in "pending" until
// fulfilment, so anything short of an explicit failure counts.
func (s IntentStatus) Settled() bool {
	switch s {
	case IntentPending, IntentProcessing, IntentRequiresAction, IntentSucceeded:
		return true
	default:
		return false
	}
}

type PaymentIntent struct {
	ID            string            `json:"id"`
	ClientSecret  string            `json:"client_secret,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Status        IntentStatus      `json:"status"`
	PaymentMethod PaymentMethodType `json:"payment_method"`
	RedirectURL   string            `json:"redirect_url,omitempty"`
}

type OrderConfirmation struct {
	OrderID           string            `json:"order_id"`
	OrderNumber       string            `json:"order_number"`
	Status            string            `json:"status"`
	Items             []ConfirmedItem   `json:"items"`
	ShippingAddress   ShippingAddress   `json:"shipping_address"`
	PaymentMethod     PaymentMethodType `json:"payment_method"`
	TransactionID     string            `json:"transaction_id,omitempty"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	Shipping          decimal.Decimal   `json:"shipping"`
	VAT               decimal.Decimal   `json:"vat"`
	Total             decimal.Decimal   `json:"total"`
	Currency          string            `json:"currency"`
	EstimatedDelivery time.Time         `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

type ConfirmedItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
