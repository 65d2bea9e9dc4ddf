package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/wenzetiindaku/checkout-api/internal/cart"
	"github.com/wenzetiindaku/checkout-api/internal/checkout"
	"github.com/wenzetiindaku/checkout-api/internal/gateway"
	kafkax "github.com/wenzetiindaku/checkout-api/internal/kafka"
	"github.com/wenzetiindaku/checkout-api/internal/pricing"
	"github.com/wenzetiindaku/checkout-api/internal/redisx"
)

type CheckoutHandler struct {
	Carts    *cart.Store
	Checkout *checkout.Store
	Gateway  gateway.Gateway
	Redis    *redis.Client
	Service  string

	// One producer per topic, bound at startup.
	ProducerConfirmed *kafkax.Producer
	ProducerStarted   *kafkax.Producer
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.initCheckout)
	r.Get("/checkout", h.getSession)
	r.Put("/checkout/shipping", h.putShipping)
	r.Get("/checkout/payment-methods", h.paymentMethods)
	r.Get("/checkout/addresses", h.savedAddresses)
	r.Post("/checkout/addresses/{addressID}/select", h.selectAddress)
	r.Post("/checkout/payment-method", h.selectPaymentMethod)
	r.Post("/checkout/payment-intent", h.createPaymentIntent)
	r.Post("/checkout/confirm", h.confirmOrder)
	r.Get("/checkout/confirmation", h.getConfirmation)
	r.Post("/checkout/reset", h.resetCheckout)
	r.Get("/orders/{id}", h.getOrder)
}

// initCheckout snapshots the cart into a fresh session. An empty cart cannot
// enter checkout.
func (h *CheckoutHandler) initCheckout(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Carts.Get(ctx, owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(c.Items) == 0 {
		writeError(w, http.StatusConflict, "cart is empty")
		return
	}

	summary := pricing.Calculate(c.Items)
	sess := h.Checkout.Init(ctx, owner, c.Items, summary)

	h.publish(h.ProducerStarted, checkout.EventCheckoutStarted, sess.ID,
		r.Header.Get("X-Request-Id"),
		checkout.CheckoutStartedPayload{
			SessionID: sess.ID,
			OwnerID:   owner,
			ItemCount: summary.ItemCount,
			Total:     summary.Total,
		})

	writeJSON(w, http.StatusCreated, sess)
}

func (h *CheckoutHandler) getSession(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	sess, err := h.Checkout.Session(ctx, owner)
	if err != nil {
		writeError(w, http.StatusNotFound, "no checkout session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// putShipping merges the patch, validates and, when everything checks out,
// advances the session to the payment step. Field errors come back as 422.
func (h *CheckoutHandler) putShipping(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	var patch checkout.AddressPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	h.Checkout.SetShippingAddress(ctx, owner, patch)
	ok, fieldErrs := h.Checkout.ValidateShippingAddress(ctx, owner)
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrs})
		return
	}

	// Totals are recomputed once the destination is settled, so the reviewed
	// summary reflects the shipping rules for the final address.
	if cur, err := h.Checkout.Session(ctx, owner); err == nil && len(cur.Items) > 0 {
		h.Checkout.SetOrderSummary(ctx, owner, pricing.Calculate(cur.Items))
	}

	sess, err := h.Checkout.SetStep(ctx, owner, checkout.StepPayment)
	if err != nil && !errors.Is(err, checkout.ErrInvalidTransition) {
		// Already past payment: keep the current step, the address update
		// alone is fine.
		writeStepError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *CheckoutHandler) paymentMethods(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	h.Checkout.SetLoading(ctx, owner, true)
	methods, err := h.Gateway.PaymentMethods(ctx)
	if err != nil {
		h.Checkout.SetError(ctx, owner, "Could not load payment methods. Please try again.")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.Checkout.SetPaymentMethods(ctx, owner, methods)
	h.Checkout.SetLoading(ctx, owner, false)
	writeJSON(w, http.StatusOK, map[string]any{"methods": methods})
}

func (h *CheckoutHandler) savedAddresses(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	addrs, err := h.Gateway.SavedAddresses(ctx, owner)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.Checkout.SetSavedAddresses(ctx, owner, addrs)
	writeJSON(w, http.StatusOK, map[string]any{"addresses": addrs})
}

func (h *CheckoutHandler) selectAddress(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	sess := h.Checkout.SelectSavedAddress(ctx, owner, chi.URLParam(r, "addressID"))
	writeJSON(w, http.StatusOK, sess)
}

type selectMethodReq struct {
	MethodID string `json:"method_id"`
}

func (h *CheckoutHandler) selectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	var req selectMethodReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Checkout.Session(ctx, owner)
	if err != nil {
		writeError(w, http.StatusNotFound, "no checkout session")
		return
	}
	for _, m := range sess.PaymentMethods {
		if m.ID == req.MethodID && m.Enabled {
			writeJSON(w, http.StatusOK, h.Checkout.SelectPaymentMethod(ctx, owner, m))
			return
		}
	}
	writeError(w, http.StatusBadRequest, "unknown payment method")
}

// createPaymentIntent asks the gateway for an intent over the selected method
// and moves the session to review once one is recorded.
func (h *CheckoutHandler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	sess, err := h.Checkout.Session(ctx, owner)
	if err != nil {
		writeError(w, http.StatusNotFound, "no checkout session")
		return
	}
	if sess.SelectedMethod == nil {
		writeError(w, http.StatusConflict, "no payment method selected")
		return
	}

	h.Checkout.SetLoading(ctx, owner, true)
	intent, err := h.Gateway.CreatePaymentIntent(ctx, gateway.CreateIntentRequest{
		SessionID:     sess.ID,
		PaymentMethod: sess.SelectedMethod.Type,
	})
	if err != nil {
		h.Checkout.SetError(ctx, owner, "Payment could not be started. Please try again.")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	// The sandbox returns zero amounts; the reviewed summary is the number
	// that matters.
	if sess.Summary != nil && intent.Amount.IsZero() {
		intent.Amount = sess.Summary.Total
		intent.Currency = sess.Summary.Currency
	}
	h.Checkout.SetPaymentIntent(ctx, owner, intent)
	h.Checkout.SetLoading(ctx, owner, false)

	out, err := h.Checkout.SetStep(ctx, owner, checkout.StepReview)
	if err != nil {
		writeStepError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// confirmOrder finishes the flow: gateway confirmation, order event, cart
// cleared, session moved to its terminal step.
func (h *CheckoutHandler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	sess, err := h.Checkout.Session(ctx, owner)
	if err != nil {
		writeError(w, http.StatusNotFound, "no checkout session")
		return
	}
	if sess.Step != checkout.StepReview {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":         "order can only be confirmed from review",
			"required_step": string(checkout.StepReview),
		})
		return
	}
	if sess.PaymentIntent == nil {
		writeError(w, http.StatusConflict, "no payment intent")
		return
	}

	h.Checkout.SetLoading(ctx, owner, true)
	conf, err := h.Gateway.ConfirmOrder(ctx, gateway.ConfirmOrderRequest{
		SessionID:       sess.ID,
		PaymentIntentID: sess.PaymentIntent.ID,
	})
	if err != nil {
		// Loading is cleared, everything else stays put so the user can
		// retry the same action.
		h.Checkout.SetError(ctx, owner, "Order could not be placed. Please try again.")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	fillConfirmation(&conf, &sess)
	h.Checkout.SetOrderConfirmation(ctx, owner, conf)
	h.Checkout.SetLoading(ctx, owner, false)

	if _, err := h.Checkout.SetStep(ctx, owner, checkout.StepConfirmed); err != nil {
		writeStepError(w, err)
		return
	}

	// Order is placed: the cart is done.
	h.Carts.Clear(ctx, owner)

	h.cacheOrder(ctx, conf)
	h.publishConfirmed(owner, sess, conf, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusOK, map[string]any{"order": conf})
}

func (h *CheckoutHandler) getConfirmation(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	sess, err := h.Checkout.Session(ctx, owner)
	if err != nil || sess.Confirmation == nil {
		writeError(w, http.StatusNotFound, "no confirmed order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": sess.Confirmation})
}

func (h *CheckoutHandler) resetCheckout(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	writeJSON(w, http.StatusOK, h.Checkout.Reset(ctx, owner))
}

// getOrder serves a confirmed order from the redis cache.
func (h *CheckoutHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrder, orderID)
	s, err := h.Redis.Get(ctx, key).Result()
	if err != nil || s == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s))
}

// fillConfirmation completes a gateway confirmation with the session data the
// user actually reviewed: items, address and totals.
func fillConfirmation(conf *checkout.OrderConfirmation, sess *checkout.Session) {
	conf.ShippingAddress = sess.ShippingAddress
	if sess.SelectedMethod != nil {
		conf.PaymentMethod = sess.SelectedMethod.Type
	}
	if sess.Summary == nil {
		return
	}
	conf.Subtotal = sess.Summary.Subtotal
	conf.Shipping = sess.Summary.Shipping
	conf.VAT = sess.Summary.VAT
	conf.Total = sess.Summary.Total
	conf.Currency = sess.Summary.Currency
	conf.Items = conf.Items[:0]
	for _, it := range sess.Summary.Items {
		conf.Items = append(conf.Items, checkout.ConfirmedItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
}

func (h *CheckoutHandler) cacheOrder(ctx context.Context, conf checkout.OrderConfirmation) {
	if h.Redis == nil {
		return
	}
	b, err := json.Marshal(map[string]any{"order": conf})
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrder, conf.OrderID)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLOrder).Err()
}

func (h *CheckoutHandler) publishConfirmed(owner string, sess checkout.Session, conf checkout.OrderConfirmation, traceID string) {
	lines := make([]checkout.ConfirmedLine, 0, len(sess.Items))
	for _, it := range sess.Items {
		lines = append(lines, checkout.ConfirmedLine{ProductID: it.ProductID, Qty: it.Quantity})
	}
	h.publish(h.ProducerConfirmed, checkout.EventOrderConfirmed, conf.OrderID, traceID,
		checkout.OrderConfirmedPayload{
			OrderID:       conf.OrderID,
			OrderNumber:   conf.OrderNumber,
			SessionID:     sess.ID,
			OwnerID:       owner,
			Items:         lines,
			PaymentMethod: conf.PaymentMethod,
			Total:         conf.Total,
			Currency:      conf.Currency,
		})
}

func (h *CheckoutHandler) publish(p *kafkax.Producer, eventType, correlationID, traceID string, payload any) {
	if p == nil {
		return
	}
	ev := checkout.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(checkout.PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func writeStepError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrAddressIncomplete):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":         err.Error(),
			"required_step": string(checkout.StepShipping),
		})
	case errors.Is(err, checkout.ErrPaymentNotReady):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":         err.Error(),
			"required_step": string(checkout.StepPayment),
		})
	case errors.Is(err, checkout.ErrUnknownStep):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
