package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakkovic/winnersfrip/internal/cart"
	"github.com/sakkovic/winnersfrip/internal/catalog"
)

// CartHandler exposes the session cart. The session id travels in the
// X-Session-Id header; the browser keeps it for the life of the visit, so the
// cart survives reloads.
type CartHandler struct {
	Products ProductSource
	Carts    cart.Store
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.get)
	r.Post("/cart/items", h.addItem)
	r.Delete("/cart/items/{id}", h.removeItem)
	r.Delete("/cart", h.clear)
}

type cartResp struct {
	Items         []cart.Item `json:"items"`
	Total         float64     `json:"total"`
	Count         int         `json:"count"`
	AlreadyInCart bool        `json:"already_in_cart,omitempty"`
}

func cartView(c *cart.Cart, dup bool) cartResp {
	return cartResp{Items: c.Items(), Total: c.Total(), Count: c.Len(), AlreadyInCart: dup}
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid := r.Header.Get("X-Session-Id")
	if sid == "" {
		writeError(w, http.StatusBadRequest, "missing X-Session-Id header")
		return "", false
	}
	return sid, true
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Load(ctx, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cartView(c, false))
}

// addItem snapshots the product into the cart. Adding an article that is
// already there is not an error: the cart is returned unchanged with
// already_in_cart set, so the UI can tell the customer.
func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Get(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	c, err := h.Carts.Load(ctx, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := c.Add(cart.Snapshot(*p)); err != nil {
		if errors.Is(err, cart.ErrAlreadyInCart) {
			writeJSON(w, http.StatusOK, cartView(c, true))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.Carts.Save(ctx, sid, c); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, cartView(c, false))
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Carts.Load(ctx, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	c.Remove(chi.URLParam(r, "id")) // absent id is a no-op
	if err := h.Carts.Save(ctx, sid, c); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cartView(c, false))
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.Delete(ctx, sid); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
