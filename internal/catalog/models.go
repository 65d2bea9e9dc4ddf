package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	CompareAtPrice decimal.Decimal `json:"compare_at_price"`
	Currency       string          `json:"currency"`
	PrimaryImage   string          `json:"primary_image"`
	CategoryID     string          `json:"category_id"`
	StoreID        string          `json:"store_id"`
	Rating         float64         `json:"rating"`
	ReviewCount    int             `json:"review_count"`
	InStock        bool            `json:"in_stock"`
	Stock          int             `json:"stock"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Image        string `json:"image,omitempty"`
	ProductCount int    `json:"product_count"`
}

type Store struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	Logo         string    `json:"logo,omitempty"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	ProductCount int       `json:"product_count"`
	Rating       float64   `json:"rating"`
	ReviewCount  int       `json:"review_count"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProductFilter narrows ListProducts. Zero values mean "no filter".
type ProductFilter struct {
	CategoryID string
	StoreID    string
	Search     string
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	InStock    bool
}
