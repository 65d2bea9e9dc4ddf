// Package pricing is the single source of truth for order totals. Cart views,
// checkout summaries and confirmations all derive their numbers here; there is
// deliberately no second formula anywhere else.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/wenzetiindaku/checkout-api/internal/cart"
)

const Currency = "USD"

var (
	// Orders at or above the threshold ship free; empty carts ship nothing.
	FreeShippingThreshold = decimal.NewFromInt(50)
	ShippingCost          = decimal.NewFromInt(10)
	VATRate               = decimal.NewFromFloat(0.16)
)

type SummaryItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Summary struct {
	Items        []SummaryItem   `json:"items"`
	ItemCount    int             `json:"item_count"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Shipping     decimal.Decimal `json:"shipping"`
	VAT          decimal.Decimal `json:"vat"`
	VATRate      decimal.Decimal `json:"vat_rate"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountCode string          `json:"discount_code,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
}

// Calculate prices a set of cart lines: subtotal over captured unit prices,
// flat shipping below the free threshold, VAT on the subtotal.
func Calculate(items []cart.Item) Summary {
	s := Summary{
		Items:    make([]SummaryItem, 0, len(items)),
		VATRate:  VATRate,
		Currency: Currency,
	}
	subtotal := decimal.Zero
	for _, it := range items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(line)
		s.ItemCount += it.Quantity
		s.Items = append(s.Items, SummaryItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Product.Name,
			Image:     it.Product.PrimaryImage,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Subtotal:  line,
		})
	}

	s.Subtotal = subtotal
	s.Shipping = shippingFor(subtotal)
	s.VAT = subtotal.Mul(VATRate)
	s.Total = subtotal.Add(s.Shipping).Add(s.VAT)
	return s
}

func shippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() || subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return ShippingCost
}
