// Package gateway talks to the payment/checkout provider. The real provider
// sits behind HTTPGateway; MockGateway reproduces the provider's sandbox
// behavior for local development and tests.
package gateway

import (
	"context"

	"github.com/wenzetiindaku/checkout-api/internal/checkout"
)

type CreateIntentRequest struct {
	SessionID     string                     `json:"session_id"`
	PaymentMethod checkout.PaymentMethodType `json:"payment_method"`
}

type ConfirmOrderRequest struct {
	SessionID       string `json:"session_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type Gateway interface {
	PaymentMethods(ctx context.Context) ([]checkout.PaymentMethod, error)
	SavedAddresses(ctx context.Context, ownerID string) ([]checkout.ShippingAddress, error)
	CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (checkout.PaymentIntent, error)
	ConfirmOrder(ctx context.Context, req ConfirmOrderRequest) (checkout.OrderConfirmation, error)
}
