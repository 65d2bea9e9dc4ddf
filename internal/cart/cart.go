package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wenzetiindaku/checkout-api/internal/catalog"
)

// Item is one cart line. Product is a snapshot taken at add time, not a live
// reference, and Price is the unit price captured when the item entered the
// cart; later catalog changes do not touch either.
type Item struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Product   catalog.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Cart keeps lines in insertion order (display order only).
type Cart struct {
	OwnerID string `json:"owner_id"`
	Items   []Item `json:"items"`
}

func newItem(p catalog.Product, qty int) Item {
	return Item{
		ID:        uuid.NewString(),
		ProductID: p.ID,
		Product:   p,
		Quantity:  qty,
		Price:     p.Price,
	}
}

// addItem merges into an existing line for the same product, otherwise
// appends. At most one line per product id.
func (c *Cart) addItem(p catalog.Product, qty int) {
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, newItem(p, qty))
}

func (c *Cart) removeItem(productID string) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

func (c *Cart) updateQuantity(productID string, qty int) {
	if qty <= 0 {
		c.removeItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) itemQuantity(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return c.Items[i].Quantity
		}
	}
	return 0
}

func (c *Cart) clone() Cart {
	out := Cart{OwnerID: c.OwnerID}
	out.Items = append([]Item(nil), c.Items...)
	return out
}
