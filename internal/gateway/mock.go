package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wenzetiindaku/checkout-api/internal/checkout"
)

// MockGateway mimics the provider sandbox: a fixed method list, one saved
// address, and intent statuses that depend on the chosen method the same way
// the sandbox's do. Selected with GATEWAY_MOCK=true.
type MockGateway struct {
	now func() time.Time
}

func NewMock() *MockGateway { return &MockGateway{now: time.Now} }

var mockMethods = []checkout.PaymentMethod{
	{
		ID:          "pm-card",
		Type:        checkout.MethodCard,
		Name:        "Credit/Debit Card",
		Description: "Pay securely with Visa, Mastercard, or American Express",
		Enabled:     true,
	},
	{
		ID:          "pm-mobile-money",
		Type:        checkout.MethodMobileMoney,
		Name:        "Mobile Money",
		Description: "Pay with M-Pesa, Orange Money, or Airtel Money",
		Enabled:     true,
	},
	{
		ID:          "pm-bank",
		Type:        checkout.MethodBankTransfer,
		Name:        "Bank Transfer",
		Description: "Direct bank transfer (may take 1-2 business days)",
		Enabled:     true,
	},
	{
		ID:          "pm-cod",
		Type:        checkout.MethodCashOnDelivery,
		Name:        "Cash on Delivery",
		Description: "Pay when you receive your order",
		Enabled:     true,
	},
}

func (m *MockGateway) PaymentMethods(ctx context.Context) ([]checkout.PaymentMethod, error) {
	out := make([]checkout.PaymentMethod, len(mockMethods))
	copy(out, mockMethods)
	return out, nil
}

func (m *MockGateway) SavedAddresses(ctx context.Context, ownerID string) ([]checkout.ShippingAddress, error) {
	return []checkout.ShippingAddress{
		{
			ID:            "addr-1",
			FirstName:     "VVS",
			LastName:      "Basanth",
			Email:         "vvs.pedapati@gmail.com",
			Phone:         "+32 495 84 68 66",
			StreetAddress: "123 Avenue de la Gombe",
			Apartment:     "Apt 4B",
			City:          "Kinshasa",
			State:         "Kinshasa",
			PostalCode:    "12345",
			Country:       "CD",
			IsDefault:     true,
		},
	}, nil
}

// CreatePaymentIntent never reaches "succeeded" directly: mobile money needs
// a redirect, cards settle asynchronously, COD and bank transfer stay pending
// until fulfilment.
func (m *MockGateway) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (checkout.PaymentIntent, error) {
	now := m.now()
	intent := checkout.PaymentIntent{
		ID:            fmt.Sprintf("pi-%d", now.UnixMilli()),
		Currency:      "USD",
		PaymentMethod: req.PaymentMethod,
	}

	switch req.PaymentMethod {
	case checkout.MethodMobileMoney:
		intent.Status = checkout.IntentRequiresAction
		intent.RedirectURL = "https://example.com/mobile-money-payment"
	case checkout.MethodCard:
		intent.Status = checkout.IntentProcessing
		intent.ClientSecret = fmt.Sprintf("secret_%d", now.UnixMilli())
	default:
		intent.Status = checkout.IntentPending
	}
	return intent, nil
}

func (m *MockGateway) ConfirmOrder(ctx context.Context, req ConfirmOrderRequest) (checkout.OrderConfirmation, error) {
	now := m.now()
	ms := now.UnixMilli()
	return checkout.OrderConfirmation{
		OrderID:           fmt.Sprintf("order-%d", ms),
		OrderNumber:       fmt.Sprintf("WTN-%08d", ms%100000000),
		Status:            "confirmed",
		TransactionID:     fmt.Sprintf("txn-%d", ms),
		Subtotal:          decimal.Zero,
		Shipping:          decimal.Zero,
		VAT:               decimal.Zero,
		Total:             decimal.Zero,
		Currency:          "USD",
		EstimatedDelivery: now.Add(7 * 24 * time.Hour),
		CreatedAt:         now,
	}, nil
}
