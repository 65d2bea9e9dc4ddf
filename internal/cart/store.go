package cart

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wenzetiindaku/checkout-api/internal/catalog"
)

// Storage is the key-value snapshot backend. A missing key yields (nil, nil).
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store holds one cart per owner. In-memory state is authoritative; every
// mutation writes a JSON snapshot of the item list to storage in the
// background, best effort. First access for an owner rehydrates from storage.
type Store struct {
	mu      sync.Mutex
	carts   map[string]*Cart
	seq     map[string]uint64
	storage Storage
	sfg     singleflight.Group

	// pmu serializes snapshot writes; written tracks the newest sequence
	// landed per owner so a late goroutine cannot clobber a newer snapshot.
	pmu     sync.Mutex
	written map[string]uint64
}

func NewStore(storage Storage) *Store {
	return &Store{
		carts:   make(map[string]*Cart),
		seq:     make(map[string]uint64),
		storage: storage,
		written: make(map[string]uint64),
	}
}

// Get returns a copy of the owner's cart, loading the persisted snapshot on
// first access. singleflight collapses concurrent rehydrations for the same
// owner.
func (s *Store) Get(ctx context.Context, ownerID string) (Cart, error) {
	s.mu.Lock()
	if c, ok := s.carts[ownerID]; ok {
		out := c.clone()
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	v, err, _ := s.sfg.Do(ownerID, func() (any, error) {
		items, err := s.loadSnapshot(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.carts[ownerID]; ok { // raced with a mutation
			return c.clone(), nil
		}
		c := &Cart{OwnerID: ownerID, Items: items}
		s.carts[ownerID] = c
		return c.clone(), nil
	})
	if err != nil {
		return Cart{}, err
	}
	return v.(Cart), nil
}

func (s *Store) AddItem(ctx context.Context, ownerID string, p catalog.Product, qty int) Cart {
	if qty < 1 {
		qty = 1
	}
	return s.mutate(ctx, ownerID, func(c *Cart) { c.addItem(p, qty) })
}

func (s *Store) RemoveItem(ctx context.Context, ownerID, productID string) Cart {
	return s.mutate(ctx, ownerID, func(c *Cart) { c.removeItem(productID) })
}

// UpdateQuantity sets the line quantity directly; qty <= 0 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, ownerID, productID string, qty int) Cart {
	return s.mutate(ctx, ownerID, func(c *Cart) { c.updateQuantity(productID, qty) })
}

func (s *Store) Clear(ctx context.Context, ownerID string) Cart {
	return s.mutate(ctx, ownerID, func(c *Cart) { c.Items = nil })
}

// ItemQuantity is a pure read; 0 when the product is not in the cart.
func (s *Store) ItemQuantity(ctx context.Context, ownerID, productID string) int {
	c, err := s.Get(ctx, ownerID)
	if err != nil {
		return 0
	}
	return c.itemQuantity(productID)
}

func (s *Store) mutate(ctx context.Context, ownerID string, fn func(*Cart)) Cart {
	// Rehydrate before the first mutation so a persisted cart is not clobbered.
	_, _ = s.Get(ctx, ownerID)

	s.mu.Lock()
	c, ok := s.carts[ownerID]
	if !ok {
		c = &Cart{OwnerID: ownerID}
		s.carts[ownerID] = c
	}
	fn(c)
	out := c.clone()
	s.seq[ownerID]++
	seq := s.seq[ownerID]
	s.mu.Unlock()

	go s.persist(ownerID, out.Items, seq)
	return out
}

func (s *Store) loadSnapshot(ctx context.Context, ownerID string) ([]Item, error) {
	if s.storage == nil {
		return nil, nil
	}
	b, err := s.storage.Get(ctx, Key(ownerID))
	if err != nil || b == nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(b, &items); err != nil {
		// Corrupt snapshot: start fresh rather than wedging the cart.
		log.Printf("cart snapshot decode owner=%s: %v", ownerID, err)
		return nil, nil
	}
	return items, nil
}

// persist is fire-and-forget: a failed write is logged, never surfaced.
// Snapshots carry the sequence taken under the store lock; one that lost the
// race to a newer write is dropped.
func (s *Store) persist(ownerID string, items []Item, seq uint64) {
	if s.storage == nil {
		return
	}
	b, err := json.Marshal(items)
	if err != nil {
		log.Printf("cart snapshot encode owner=%s: %v", ownerID, err)
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
		log.Printf("cart snapshot write owner=%s: %v", ownerID, err)
		return
	}
	s.written[ownerID] = seq
}

// Key is the storage key for one owner's cart.
func Key(ownerID string) string { return "cart:" + ownerID }
