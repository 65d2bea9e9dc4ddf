package checkout_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenzetiindaku/checkout-api/internal/cart"
	"github.com/wenzetiindaku/checkout-api/internal/catalog"
	"github.com/wenzetiindaku/checkout-api/internal/checkout"
	"github.com/wenzetiindaku/checkout-api/internal/pricing"
)

type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func strp(s string) *string { return &s }

func patchFrom(a checkout.ShippingAddress) checkout.AddressPatch {
	return checkout.AddressPatch{
		FirstName:     strp(a.FirstName),
		LastName:      strp(a.LastName),
		Email:         strp(a.Email),
		Phone:         strp(a.Phone),
		StreetAddress: strp(a.StreetAddress),
		City:          strp(a.City),
		State:         strp(a.State),
		PostalCode:    strp(a.PostalCode),
		Country:       strp(a.Country),
	}
}

func cartItems() ([]cart.Item, pricing.Summary) {
	items := []cart.Item{{
		ID:        "line-1",
		ProductID: "prod-1",
		Product:   catalog.Product{ID: "prod-1", Name: "Wax Print Fabric", Price: decimal.RequireFromString("15")},
		Quantity:  2,
		Price:     decimal.RequireFromString("15"),
	}}
	return items, pricing.Calculate(items)
}

func pendingIntent() checkout.PaymentIntent {
	return checkout.PaymentIntent{
		ID:            "pi-1",
		Status:        checkout.IntentPending,
		PaymentMethod: checkout.MethodCashOnDelivery,
	}
}

func codMethod() checkout.PaymentMethod {
	return checkout.PaymentMethod{
		ID:      "pm-cod",
		Type:    checkout.MethodCashOnDelivery,
		Name:    "Cash on Delivery",
		Enabled: true,
	}
}

func TestInitStartsFreshSession(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	items, summary := cartItems()

	s.SetError(ctx, "u1", "stale error")
	s.SetPaymentIntent(ctx, "u1", pendingIntent())

	sess := s.Init(ctx, "u1", items, summary)

	assert.True(t, strings.HasPrefix(sess.ID, "checkout-"))
	assert.Equal(t, checkout.StepShipping, sess.Step)
	assert.Empty(t, sess.Err)
	assert.Nil(t, sess.PaymentIntent)
	assert.Nil(t, sess.Confirmation)
	require.Len(t, sess.Items, 1)
	require.NotNil(t, sess.Summary)
	assert.True(t, sess.Summary.Total.Equal(summary.Total))
}

func TestInitCopiesItems(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	items, summary := cartItems()

	s.Init(ctx, "u1", items, summary)
	items[0].Quantity = 99

	sess, err := s.Session(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Items[0].Quantity)
}

func TestSessionWithoutInit(t *testing.T) {
	s := checkout.NewStore(nil)
	_, err := s.Session(context.Background(), "nobody")
	assert.ErrorIs(t, err, checkout.ErrNoSession)
}

func TestSetStepUnknown(t *testing.T) {
	s := checkout.NewStore(nil)
	_, err := s.SetStep(context.Background(), "u1", "delivery")
	assert.ErrorIs(t, err, checkout.ErrUnknownStep)
}

func TestSetStepRejectsSkippingAhead(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	items, summary := cartItems()
	s.Init(ctx, "u1", items, summary)

	_, err := s.SetStep(ctx, "u1", checkout.StepReview)
	assert.ErrorIs(t, err, checkout.ErrInvalidTransition)

	_, err = s.SetStep(ctx, "u1", checkout.StepConfirmed)
	assert.ErrorIs(t, err, checkout.ErrInvalidTransition)
}

func TestSetStepPaymentRequiresCompleteAddress(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	items, summary := cartItems()
	s.Init(ctx, "u1", items, summary)

	_, err := s.SetStep(ctx, "u1", checkout.StepPayment)
	assert.ErrorIs(t, err, checkout.ErrAddressIncomplete)

	s.SetShippingAddress(ctx, "u1", patchFrom(validAddress()))
	sess, err := s.SetStep(ctx, "u1", checkout.StepPayment)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepPayment, sess.Step)
}

func TestSetStepReviewRequiresMethodAndIntent(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	items, summary := cartItems()
	s.Init(ctx, "u1", items, summary)
	s.SetShippingAddress(ctx, "u1", patchFrom(validAddress()))
	_, err := s.SetStep(ctx, "u1", checkout.StepPayment)
	require.NoError(t, err)

	_, err = s.SetStep(ctx, "u1", checkout.StepReview)
	assert.ErrorIs(t, err, checkout.ErrPaymentNotReady)

	s.SelectPaymentMethod(ctx, "u1", codMethod())
	_, err = s.SetStep(ctx, "u1", checkout.StepReview)
	assert.ErrorIs(t, err, checkout.ErrPaymentNotReady)

	// a pending intent is enough: COD settles at fulfilment
	s.SetPaymentIntent(ctx, "u1", pendingIntent())
	sess, err := s.SetStep(ctx, "u1", checkout.StepReview)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepReview, sess.Step)
}

func TestSetStepReviewRejectsFailedIntent(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	items, summary := cartItems()
	s.Init(ctx, "u1", items, summary)
	s.SetShippingAddress(ctx, "u1", patchFrom(validAddress()))
	_, err := s.SetStep(ctx, "u1", checkout.StepPayment)
	require.NoError(t, err)

	s.SelectPaymentMethod(ctx, "u1", codMethod())
	intent := pendingIntent()
	intent.Status = checkout.IntentFailed
	s.SetPaymentIntent(ctx, "u1", intent)

	_, err = s.SetStep(ctx, "u1", checkout.StepReview)
	assert.ErrorIs(t, err, checkout.ErrPaymentNotReady)
	assert.False(t, s.CanProceedToReview(ctx, "u1"))
}

func TestSetStepBackwardsAlwaysAllowed(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	items, summary := cartItems()
	s.Init(ctx, "u1", items, summary)
	s.SetShippingAddress(ctx, "u1", patchFrom(validAddress()))
	_, err := s.SetStep(ctx, "u1", checkout.StepPayment)
	require.NoError(t, err)

	sess, err := s.SetStep(ctx, "u1", checkout.StepShipping)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepShipping, sess.Step)
}

func TestSetStepConfirmedIsTerminal(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	items, summary := cartItems()
	s.Init(ctx, "u1", items, summary)
	s.SetShippingAddress(ctx, "u1", patchFrom(validAddress()))
	_, err := s.SetStep(ctx, "u1", checkout.StepPayment)
	require.NoError(t, err)
	s.SelectPaymentMethod(ctx, "u1", codMethod())
	s.SetPaymentIntent(ctx, "u1", pendingIntent())
	_, err = s.SetStep(ctx, "u1", checkout.StepReview)
	require.NoError(t, err)
	_, err = s.SetStep(ctx, "u1", checkout.StepConfirmed)
	require.NoError(t, err)

	for _, to := range []checkout.Step{
		checkout.StepShipping, checkout.StepPayment, checkout.StepReview,
	} {
		_, err := s.SetStep(ctx, "u1", to)
		assert.ErrorIs(t, err, checkout.ErrInvalidTransition, "confirmed -> %s", to)
	}
}

func TestSetStepSameStepClearsError(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	items, summary := cartItems()
	s.Init(ctx, "u1", items, summary)
	s.SetError(ctx, "u1", "boom")

	sess, err := s.SetStep(ctx, "u1", checkout.StepShipping)
	require.NoError(t, err)
	assert.Empty(t, sess.Err)
}

func TestSetShippingAddressMergesPatch(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)

	s.SetShippingAddress(ctx, "u1", patchFrom(validAddress()))
	sess := s.SetShippingAddress(ctx, "u1", checkout.AddressPatch{City: strp("Lubumbashi")})

	assert.Equal(t, "Lubumbashi", sess.ShippingAddress.City)
	assert.Equal(t, "Amina", sess.ShippingAddress.FirstName)
	assert.Nil(t, sess.AddressErrors)
}

func TestValidateShippingAddressRecordsErrors(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)

	ok, errs := s.ValidateShippingAddress(ctx, "u1")
	assert.False(t, ok)
	assert.Contains(t, errs, "first_name")
	// default country survives the blank template
	assert.NotContains(t, errs, "country")

	sess, err := s.Session(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, errs, sess.AddressErrors)
	assert.False(t, s.CanProceedToPayment(ctx, "u1"))
}

func TestSelectSavedAddress(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	saved := validAddress()
	saved.ID = "addr-1"
	s.SetSavedAddresses(ctx, "u1", []checkout.ShippingAddress{saved})

	sess := s.SelectSavedAddress(ctx, "u1", "addr-1")
	assert.Equal(t, saved.StreetAddress, sess.ShippingAddress.StreetAddress)
	assert.Equal(t, saved.Email, sess.ShippingAddress.Email)

	// unknown id leaves the working address alone
	sess = s.SelectSavedAddress(ctx, "u1", "addr-404")
	assert.Equal(t, saved.StreetAddress, sess.ShippingAddress.StreetAddress)
}

func TestSetErrorClearsLoading(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)

	s.SetLoading(ctx, "u1", true)
	sess := s.SetError(ctx, "u1", "gateway unavailable")
	assert.Equal(t, "gateway unavailable", sess.Err)
	assert.False(t, sess.Loading)
}

func TestResetRestoresBlankTemplate(t *testing.T) {
	ctx := context.Background()
	s := checkout.NewStore(nil)
	items, summary := cartItems()
	s.Init(ctx, "u1", items, summary)
	s.SetShippingAddress(ctx, "u1", patchFrom(validAddress()))
	s.SelectPaymentMethod(ctx, "u1", codMethod())
	s.SetPaymentIntent(ctx, "u1", pendingIntent())
	s.SetError(ctx, "u1", "boom")

	sess := s.Reset(ctx, "u1")

	assert.Empty(t, sess.ID)
	assert.Equal(t, checkout.StepShipping, sess.Step)
	assert.Equal(t, "CD", sess.ShippingAddress.Country)
	assert.Empty(t, sess.ShippingAddress.FirstName)
	assert.Nil(t, sess.SelectedMethod)
	assert.Nil(t, sess.PaymentIntent)
	assert.Empty(t, sess.Items)
	assert.Nil(t, sess.Summary)
	assert.Empty(t, sess.Err)
}

func TestPersistedSnapshotOmitsTransientState(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	s := checkout.NewStore(storage)
	items, summary := cartItems()

	s.Init(ctx, "u1", items, summary)
	s.SetShippingAddress(ctx, "u1", patchFrom(validAddress()))
	m := codMethod()
	s.SetPaymentMethods(ctx, "u1", []checkout.PaymentMethod{m})
	s.SelectPaymentMethod(ctx, "u1", m)
	s.SetPaymentIntent(ctx, "u1", pendingIntent())
	s.SetError(ctx, "u1", "transient")

	var raw []byte
	require.Eventually(t, func() bool {
		b, _ := storage.Get(ctx, checkout.Key("u1"))
		if b == nil {
			return false
		}
		var probe map[string]json.RawMessage
		if json.Unmarshal(b, &probe) != nil {
			return false
		}
		_, ok := probe["selected_payment_method"]
		raw = b
		return ok
	}, time.Second, 10*time.Millisecond)

	var snap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &snap))

	assert.Contains(t, snap, "id")
	assert.Contains(t, snap, "step")
	assert.Contains(t, snap, "shipping_address")
	assert.Contains(t, snap, "items")
	assert.Contains(t, snap, "summary")

	assert.NotContains(t, snap, "payment_intent")
	assert.NotContains(t, snap, "payment_methods")
	assert.NotContains(t, snap, "saved_addresses")
	assert.NotContains(t, snap, "address_errors")
	assert.NotContains(t, snap, "error")
	assert.NotContains(t, snap, "loading")
	assert.NotContains(t, snap, "confirmation")
}

func TestSessionRehydratesFromStorage(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	items, summary := cartItems()

	first := checkout.NewStore(storage)
	first.Init(ctx, "u1", items, summary)
	first.SetShippingAddress(ctx, "u1", patchFrom(validAddress()))
	_, err := first.SetStep(ctx, "u1", checkout.StepPayment)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		b, _ := storage.Get(ctx, checkout.Key("u1"))
		if b == nil {
			return false
		}
		var probe struct {
			Step checkout.Step `json:"step"`
		}
		return json.Unmarshal(b, &probe) == nil && probe.Step == checkout.StepPayment
	}, time.Second, 10*time.Millisecond)

	second := checkout.NewStore(storage)
	sess, err := second.Session(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StepPayment, sess.Step)
	assert.Equal(t, "Kinshasa", sess.ShippingAddress.City)
	require.Len(t, sess.Items, 1)
	require.NotNil(t, sess.Summary)

	// transient fields never survive a restart
	assert.Nil(t, sess.PaymentIntent)
	assert.Empty(t, sess.PaymentMethods)
}

func TestCorruptSessionSnapshotTreatedAsMissing(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	require.NoError(t, storage.Set(ctx, checkout.Key("u1"), []byte("{nope")))

	s := checkout.NewStore(storage)
	_, err := s.Session(ctx, "u1")
	assert.ErrorIs(t, err, checkout.ErrNoSession)
}

func TestCanProceedToReviewWithoutSession(t *testing.T) {
	s := checkout.NewStore(nil)
	assert.False(t, s.CanProceedToReview(context.Background(), "nobody"))
}

func TestSetOrderSummaryReplacesAndPersists(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	s := checkout.NewStore(storage)
	items, summary := cartItems()
	s.Init(ctx, "u1", items, summary)

	items[0].Quantity = 3
	recalced := pricing.Calculate(items)
	require.False(t, recalced.Total.Equal(summary.Total))

	sess := s.SetOrderSummary(ctx, "u1", recalced)
	require.NotNil(t, sess.Summary)
	assert.True(t, sess.Summary.Total.Equal(recalced.Total))

	require.Eventually(t, func() bool {
		b, _ := storage.Get(ctx, checkout.Key("u1"))
		if b == nil {
			return false
		}
		var snap struct {
			Summary *pricing.Summary `json:"summary"`
		}
		if json.Unmarshal(b, &snap) != nil || snap.Summary == nil {
			return false
		}
		return snap.Summary.Total.Equal(recalced.Total)
	}, time.Second, 10*time.Millisecond)
}

// slowFirstStorage delays the first write so an older snapshot goroutine can
// arrive after a newer one.
type slowFirstStorage struct {
	*memStorage
	once sync.Once
}

func (s *slowFirstStorage) Set(ctx context.Context, key string, value []byte) error {
	slept := false
	s.once.Do(func() { slept = true })
	if slept {
		time.Sleep(50 * time.Millisecond)
	}
	return s.memStorage.Set(ctx, key, value)
}

func TestPersistKeepsNewestSnapshot(t *testing.T) {
	ctx := context.Background()
	storage := &slowFirstStorage{memStorage: newMemStorage()}
	s := checkout.NewStore(storage)

	s.SetShippingAddress(ctx, "u1", checkout.AddressPatch{City: strp("Kinshasa")})
	s.SetShippingAddress(ctx, "u1", checkout.AddressPatch{City: strp("Goma")})

	city := func() string {
		b, _ := storage.Get(ctx, checkout.Key("u1"))
		if b == nil {
			return ""
		}
		var snap struct {
			ShippingAddress checkout.ShippingAddress `json:"shipping_address"`
		}
		if json.Unmarshal(b, &snap) != nil {
			return ""
		}
		return snap.ShippingAddress.City
	}

	require.Eventually(t, func() bool { return city() == "Goma" },
		time.Second, 10*time.Millisecond)

	// the delayed older write must not land afterwards
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "Goma", city())
}
