package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakkovic/winnersfrip/internal/auth"
	"github.com/sakkovic/winnersfrip/internal/cart"
	"github.com/sakkovic/winnersfrip/internal/reservation"
)

// CheckoutHandler turns the session cart into a pending reservation.
type CheckoutHandler struct {
	Carts        cart.Store
	Orchestrator *reservation.Orchestrator
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.With(auth.Require).Post("/checkout", h.checkout)
}

type checkoutReq struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		req.Name = p.Name
	}

	// No timeout: once issued, checkout runs to completion or failure.
	ctx := r.Context()

	c, err := h.Carts.Load(ctx, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := h.Orchestrator.Checkout(ctx, sid, c, reservation.Customer{
		ID:    p.UID,
		Name:  req.Name,
		Email: p.Email,
		Phone: req.Phone,
	})
	if err != nil {
		var conflict *reservation.ConflictError
		switch {
		case errors.Is(err, reservation.ErrEmptyCart), errors.Is(err, reservation.ErrMissingContact):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.As(err, &conflict):
			// The cart is intact; the customer drops these articles and retries.
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":       "articles no longer available",
				"product_ids": conflict.ProductIDs,
			})
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, res)
}
