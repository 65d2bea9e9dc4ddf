package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/wenzetiindaku/checkout-api/internal/cart"
	"github.com/wenzetiindaku/checkout-api/internal/pricing"
)

var (
	ErrNoSession         = errors.New("no checkout session")
	ErrUnknownStep       = errors.New("unknown checkout step")
	ErrInvalidTransition = errors.New("invalid step transition")
	// ErrAddressIncomplete gates shipping -> payment.
	ErrAddressIncomplete = errors.New("shipping address incomplete")
	// ErrPaymentNotReady gates payment -> review.
	ErrPaymentNotReady = errors.New("payment not ready")
)

// Storage is the same key-value contract the cart store uses.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store keeps one checkout session per owner and enforces the step machine.
// The step transition table is the single gate: handlers ask the store to
// move, they never gate on their own.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	seq      map[string]uint64
	storage  Storage
	now      func() time.Time

	// pmu serializes snapshot writes; written tracks the newest sequence
	// landed per owner so a late goroutine cannot clobber a newer snapshot.
	pmu     sync.Mutex
	written map[string]uint64
}

func NewStore(storage Storage) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		seq:      make(map[string]uint64),
		storage:  storage,
		now:      time.Now,
		written:  make(map[string]uint64),
	}
}

// Init starts a fresh session over a snapshot of the cart: new session id,
// step back to shipping, previous error cleared. The items slice is copied so
// later cart mutations cannot alter an in-progress summary.
func (s *Store) Init(ctx context.Context, ownerID string, items []cart.Item, summary pricing.Summary) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		sess.ID = newSessionID(s.now())
		sess.Step = StepShipping
		sess.Err = ""
		sess.Items = append([]cart.Item(nil), items...)
		sess.Summary = &summary
		sess.Confirmation = nil
		sess.PaymentIntent = nil
		return nil
	})
}

// Session returns a copy of the owner's session, rehydrating the persisted
// subset on first access. ErrNoSession when nothing was ever initialized.
func (s *Store) Session(ctx context.Context, ownerID string) (Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[ownerID]; ok {
		out := sess.clone()
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	sess, err := s.loadSnapshot(ctx, ownerID)
	if err != nil {
		return Session{}, err
	}
	if sess == nil {
		return Session{}, ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[ownerID]; ok {
		return cur.clone(), nil
	}
	s.sessions[ownerID] = sess
	return sess.clone(), nil
}

// SetStep moves the session to the given step. The transition table rejects
// invalid moves, and forward moves additionally require their prerequisites:
// a valid address to enter payment, a selected method plus a settled intent
// to enter review. Any accepted move clears the session error.
func (s *Store) SetStep(ctx context.Context, ownerID string, to Step) (Session, error) {
	if !ValidStep(to) {
		return Session{}, ErrUnknownStep
	}
	return s.mutateErr(ctx, ownerID, func(sess *Session) error {
		if sess.Step == to {
			sess.Err = ""
			return nil
		}
		if !CanTransition(sess.Step, to) {
			return ErrInvalidTransition
		}
		switch to {
		case StepPayment:
			if len(sess.ShippingAddress.Validate()) > 0 {
				return ErrAddressIncomplete
			}
		case StepReview:
			if !canReview(sess) {
				return ErrPaymentNotReady
			}
		}
		sess.Step = to
		sess.Err = ""
		return nil
	})
}

// SetShippingAddress shallow-merges the patch into the working address and
// clears prior field errors.
func (s *Store) SetShippingAddress(ctx context.Context, ownerID string, patch AddressPatch) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		patch.apply(&sess.ShippingAddress)
		sess.AddressErrors = nil
		return nil
	})
}

// ValidateShippingAddress re-derives field errors from the current address
// and records them on the session.
func (s *Store) ValidateShippingAddress(ctx context.Context, ownerID string) (bool, FieldErrors) {
	var errs FieldErrors
	s.mutate(ctx, ownerID, func(sess *Session) error {
		errs = sess.ShippingAddress.Validate()
		sess.AddressErrors = errs
		return nil
	})
	return len(errs) == 0, errs
}

func (s *Store) SetSavedAddresses(ctx context.Context, ownerID string, addrs []ShippingAddress) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		sess.SavedAddresses = append([]ShippingAddress(nil), addrs...)
		return nil
	})
}

// SelectSavedAddress copies the chosen saved address into the working
// address. Unknown ids leave the session untouched.
func (s *Store) SelectSavedAddress(ctx context.Context, ownerID, addressID string) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		for _, a := range sess.SavedAddresses {
			if a.ID == addressID {
				sess.ShippingAddress = a
				sess.AddressErrors = nil
				return nil
			}
		}
		return nil
	})
}

func (s *Store) SetPaymentMethods(ctx context.Context, ownerID string, methods []PaymentMethod) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		sess.PaymentMethods = append([]PaymentMethod(nil), methods...)
		return nil
	})
}

func (s *Store) SelectPaymentMethod(ctx context.Context, ownerID string, m PaymentMethod) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		sess.SelectedMethod = &m
		sess.Err = ""
		return nil
	})
}

func (s *Store) SetPaymentIntent(ctx context.Context, ownerID string, intent PaymentIntent) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		sess.PaymentIntent = &intent
		return nil
	})
}

// SetOrderSummary replaces the summary, used when totals are recalculated
// after an address change.
func (s *Store) SetOrderSummary(ctx context.Context, ownerID string, summary pricing.Summary) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		sess.Summary = &summary
		return nil
	})
}

func (s *Store) SetOrderConfirmation(ctx context.Context, ownerID string, c OrderConfirmation) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		sess.Confirmation = &c
		return nil
	})
}

func (s *Store) SetLoading(ctx context.Context, ownerID string, loading bool) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		sess.Loading = loading
		return nil
	})
}

// SetError records a session-level error; a non-empty error also clears the
// loading flag.
func (s *Store) SetError(ctx context.Context, ownerID, msg string) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		sess.Err = msg
		if msg != "" {
			sess.Loading = false
		}
		return nil
	})
}

// Reset restores the blank template: step shipping, empty address with the
// default country, nothing selected.
func (s *Store) Reset(ctx context.Context, ownerID string) Session {
	return s.mutate(ctx, ownerID, func(sess *Session) error {
		*sess = *blankSession()
		return nil
	})
}

func (s *Store) CanProceedToPayment(ctx context.Context, ownerID string) bool {
	ok, _ := s.ValidateShippingAddress(ctx, ownerID)
	return ok
}

// CanProceedToReview mirrors the payment -> review gate of SetStep.
func (s *Store) CanProceedToReview(ctx context.Context, ownerID string) bool {
	sess, err := s.Session(ctx, ownerID)
	if err != nil {
		return false
	}
	return canReview(&sess)
}

func canReview(sess *Session) bool {
	return sess.SelectedMethod != nil &&
		sess.PaymentIntent != nil &&
		sess.PaymentIntent.Status.Settled()
}

func (s *Store) mutate(ctx context.Context, ownerID string, fn func(*Session) error) Session {
	out, _ := s.mutateErr(ctx, ownerID, fn)
	return out
}

func (s *Store) mutateErr(ctx context.Context, ownerID string, fn func(*Session) error) (Session, error) {
	// Rehydrate first so a persisted session is not clobbered by the blank
	// template.
	if _, err := s.Session(ctx, ownerID); err != nil && !errors.Is(err, ErrNoSession) {
		log.Printf("checkout rehydrate owner=%s: %v", ownerID, err)
	}

	s.mu.Lock()
	sess, ok := s.sessions[ownerID]
	if !ok {
		sess = blankSession()
		s.sessions[ownerID] = sess
	}
	if err := fn(sess); err != nil {
		out := sess.clone()
		s.mu.Unlock()
		return out, err
	}
	out := sess.clone()
	snap := sess.snapshot()
	s.seq[ownerID]++
	seq := s.seq[ownerID]
	s.mu.Unlock()

	go s.persist(ownerID, snap, seq)
	return out, nil
}

func (s *Store) loadSnapshot(ctx context.Context, ownerID string) (*Session, error) {
	if s.storage == nil {
		return nil, nil
	}
	b, err := s.storage.Get(ctx, Key(ownerID))
	if err != nil || b == nil {
		return nil, err
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		log.Printf("checkout snapshot decode owner=%s: %v", ownerID, err)
		return nil, nil
	}
	if snap.ID == "" && snap.Step == "" {
		return nil, nil
	}
	if snap.Step == "" || !ValidStep(snap.Step) {
		snap.Step = StepShipping
	}
	return snap.session(), nil
}

// persist writes the session subset best effort; failures are logged only.
// Snapshots carry the sequence taken under the store lock; one that lost the
// race to a newer write is dropped.
func (s *Store) persist(ownerID string, snap snapshot, seq uint64) {
	if s.storage == nil {
		return
	}
	b, err := json.Marshal(snap)
	if err != nil {
		log.Printf("checkout snapshot encode owner=%s: %v", ownerID, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.pmu.Lock()
	defer s.pmu.Unlock()
	if seq <= s.written[ownerID] {
		return
	}
	if err := s.storage.Set(ctx, Key(ownerID), b); err != nil {
		log.Printf("checkout snapshot write owner=%s: %v", ownerID, err)
		return
	}
	s.written[ownerID] = seq
}

// Key is the storage key for one owner's checkout session.
func Key(ownerID string) string { return "checkout:" + ownerID }
