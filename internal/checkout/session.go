package checkout

import (
	"fmt"
	"time"

	"github.com/wenzetiindaku/checkout-api/internal/cart"
	"github.com/wenzetiindaku/checkout-api/internal/pricing"
)

// Session is the full checkout state for one owner. Only the fields in
// snapshot survive a restart; everything else is transient and re-fetchable.
type Session struct {
	ID      string `json:"id"`
	Step    Step   `json:"step"`
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`

	ShippingAddress ShippingAddress   `json:"shipping_address"`
	SavedAddresses  []ShippingAddress `json:"saved_addresses,omitempty"`
	AddressErrors   FieldErrors       `json:"address_errors,omitempty"`

	PaymentMethods []PaymentMethod `json:"payment_methods,omitempty"`
	SelectedMethod *PaymentMethod  `json:"selected_payment_method,omitempty"`
	PaymentIntent  *PaymentIntent  `json:"payment_intent,omitempty"`

	Items   []cart.Item      `json:"items"`
	Summary *pricing.Summary `json:"summary,omitempty"`

	Confirmation *OrderConfirmation `json:"confirmation,omitempty"`
}

// snapshot is the persisted subset of a Session. Card data never appears
// here: the payment intent, method list and confirmation stay in memory.
type snapshot struct {
	ID              string           `json:"id"`
	Step            Step             `json:"step"`
	ShippingAddress ShippingAddress  `json:"shipping_address"`
	SelectedMethod  *PaymentMethod   `json:"selected_payment_method,omitempty"`
	Items           []cart.Item      `json:"items"`
	Summary         *pricing.Summary `json:"summary,omitempty"`
}

func (s *Session) snapshot() snapshot {
	return snapshot{
		ID:              s.ID,
		Step:            s.Step,
		ShippingAddress: s.ShippingAddress,
		SelectedMethod:  s.SelectedMethod,
		Items:           s.Items,
		Summary:         s.Summary,
	}
}

func (sn snapshot) session() *Session {
	return &Session{
		ID:              sn.ID,
		Step:            sn.Step,
		ShippingAddress: sn.ShippingAddress,
		SelectedMethod:  sn.SelectedMethod,
		Items:           sn.Items,
		Summary:         sn.Summary,
	}
}

func blankAddress() ShippingAddress {
	return ShippingAddress{Country: "CD"}
}

func blankSession() *Session {
	return &Session{Step: StepShipping, ShippingAddress: blankAddress()}
}

func newSessionID(now time.Time) string {
	return fmt.Sprintf("checkout-%d", now.UnixMilli())
}

func (s *Session) clone() Session {
	out := *s
	out.SavedAddresses = append([]ShippingAddress(nil), s.SavedAddresses...)
	out.PaymentMethods = append([]PaymentMethod(nil), s.PaymentMethods...)
	out.Items = append([]cart.Item(nil), s.Items...)
	if s.AddressErrors != nil {
		out.AddressErrors = make(FieldErrors, len(s.AddressErrors))
		for k, v := range s.AddressErrors {
			out.AddressErrors[k] = v
		}
	}
	if s.SelectedMethod != nil {
		m := *s.SelectedMethod
		out.SelectedMethod = &m
	}
	if s.PaymentIntent != nil {
		pi := *s.PaymentIntent
		out.PaymentIntent = &pi
	}
	if s.Summary != nil {
		sum := *s.Summary
		out.Summary = &sum
	}
	if s.Confirmation != nil {
		c := *s.Confirmation
		out.Confirmation = &c
	}
	return out
}
