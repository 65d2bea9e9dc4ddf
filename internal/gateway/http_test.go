package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenzetiindaku/checkout-api/internal/checkout"
	"github.com/wenzetiindaku/checkout-api/internal/gateway"
)

func TestHTTPGatewaySendsAuthAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/checkout/payment-methods", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"methods":[
			{"id":"pm-card","type":"card","name":"Card","enabled":true},
			{"id":"pm-cod","type":"cash_on_delivery","name":"Cash on Delivery","enabled":false}
		]}`))
	}))
	defer srv.Close()

	g := gateway.NewHTTP(srv.URL, "tok-123")
	methods, err := g.PaymentMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, checkout.MethodCard, methods[0].Type)
	assert.False(t, methods[1].Enabled)
}

func TestHTTPGatewaySkipsAuthWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"methods":[]}`))
	}))
	defer srv.Close()

	_, err := gateway.NewHTTP(srv.URL, "").PaymentMethods(context.Background())
	require.NoError(t, err)
}

func TestHTTPGatewayUnwrapsErrorBodies(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"message field", http.StatusPaymentRequired, `{"message":"card declined"}`, "card declined"},
		{"error field", http.StatusUnprocessableEntity, `{"error":"invalid session"}`, "invalid session"},
		{"opaque body", http.StatusBadGateway, `upstream exploded`, "502 Bad Gateway"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := gateway.NewHTTP(srv.URL, "tok").CreatePaymentIntent(context.Background(),
				gateway.CreateIntentRequest{SessionID: "checkout-1", PaymentMethod: checkout.MethodCard})
			require.Error(t, err)

			apiErr, ok := err.(*gateway.APIError)
			require.True(t, ok, "expected *APIError, got %T", err)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestHTTPGatewayConfirmOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/confirm-order", r.URL.Path)
		_, _ = w.Write([]byte(`{"order":{
			"order_id":"order-1","order_number":"WTN-00000042","status":"confirmed",
			"total":"44.8","currency":"USD"
		}}`))
	}))
	defer srv.Close()

	conf, err := gateway.NewHTTP(srv.URL, "tok").ConfirmOrder(context.Background(),
		gateway.ConfirmOrderRequest{SessionID: "checkout-1", PaymentIntentID: "pi-1"})
	require.NoError(t, err)
	assert.Equal(t, "WTN-00000042", conf.OrderNumber)
	assert.Equal(t, "confirmed", conf.Status)
	assert.Equal(t, "USD", conf.Currency)
}

func TestHTTPGatewayContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := gateway.NewHTTP(srv.URL, "tok").PaymentMethods(ctx)
	assert.Error(t, err)
}
