package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wenzetiindaku/checkout-api/internal/checkout"
)

// HTTPGateway calls the real provider: bearer token on every request, one
// shared timeout, JSON error bodies unwrapped into the returned error.
type HTTPGateway struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTP(baseURL, token string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError carries the status and message of a non-2xx provider response.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.Status)
}

func (g *HTTPGateway) PaymentMethods(ctx context.Context) ([]checkout.PaymentMethod, error) {
	var resp struct {
		Methods []checkout.PaymentMethod `json:"methods"`
	}
	if err := g.do(ctx, http.MethodGet, "/checkout/payment-methods", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Methods, nil
}

func (g *HTTPGateway) SavedAddresses(ctx context.Context, ownerID string) ([]checkout.ShippingAddress, error) {
	var resp struct {
		Addresses []checkout.ShippingAddress `json:"addresses"`
	}
	path := "/user/addresses?owner_id=" + url.QueryEscape(ownerID)
	if err := g.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

func (g *HTTPGateway) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (checkout.PaymentIntent, error) {
	var resp struct {
		PaymentIntent checkout.PaymentIntent `json:"payment_intent"`
	}
	if err := g.do(ctx, http.MethodPost, "/checkout/create-payment-intent", req, &resp); err != nil {
		return checkout.PaymentIntent{}, err
	}
	return resp.PaymentIntent, nil
}

func (g *HTTPGateway) ConfirmOrder(ctx context.Context, req ConfirmOrderRequest) (checkout.OrderConfirmation, error) {
	var resp struct {
		Order checkout.OrderConfirmation `json:"order"`
	}
	if err := g.do(ctx, http.MethodPost, "/checkout/confirm-order", req, &resp); err != nil {
		return checkout.OrderConfirmation{}, err
	}
	return resp.Order, nil
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body, out any) error {
	var r *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		// Best effort: providers return {"message": "..."} or {"error": "..."}.
		var body struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			if body.Message != "" {
				apiErr.Message = body.Message
			} else if body.Error != "" {
				apiErr.Message = body.Error
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
