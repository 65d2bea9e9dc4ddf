package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wenzetiindaku/checkout-api/internal/cart"
	"github.com/wenzetiindaku/checkout-api/internal/catalog"
	"github.com/wenzetiindaku/checkout-api/internal/pricing"
)

// ProductCatalog is the slice of the catalog the cart needs: price capture at
// add time.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

type CartHandler struct {
	Carts   *cart.Store
	Catalog ProductCatalog
}

type cartResp struct {
	Cart    cart.Cart       `json:"cart"`
	Summary pricing.Summary `json:"summary"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Put("/cart/items/{productID}", h.updateQuantity)
	r.Delete("/cart/items/{productID}", h.removeItem)
	r.Delete("/cart", h.clearCart)
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Get(ctx, owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cartResp{Cart: c, Summary: pricing.Calculate(c.Items)})
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing product_id")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// The unit price is captured here, from the catalog, not from the client.
	p, err := h.Catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	c := h.Carts.AddItem(ctx, owner, p, req.Quantity)
	writeJSON(w, http.StatusOK, cartResp{Cart: c, Summary: pricing.Calculate(c.Items)})
}

type updateQtyReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	productID := chi.URLParam(r, "productID")
	var req updateQtyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c := h.Carts.UpdateQuantity(ctx, owner, productID, req.Quantity)
	writeJSON(w, http.StatusOK, cartResp{Cart: c, Summary: pricing.Calculate(c.Items)})
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c := h.Carts.RemoveItem(ctx, owner, chi.URLParam(r, "productID"))
	writeJSON(w, http.StatusOK, cartResp{Cart: c, Summary: pricing.Calculate(c.Items)})
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c := h.Carts.Clear(ctx, owner)
	writeJSON(w, http.StatusOK, cartResp{Cart: c, Summary: pricing.Calculate(c.Items)})
}
