package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/sakkovic/winnersfrip/internal/auth"
	"github.com/sakkovic/winnersfrip/internal/catalog"
	"github.com/sakkovic/winnersfrip/internal/images"
	"github.com/sakkovic/winnersfrip/internal/redisx"
	"github.com/sakkovic/winnersfrip/internal/reservation"
)

// ProductAdmin is the write side of the catalog, used by the back office.
type ProductAdmin interface {
	ProductSource
	AdminList(ctx context.Context, name, category string) ([]catalog.Product, error)
	Create(ctx context.Context, p *catalog.Product) error
	Update(ctx context.Context, p *catalog.Product) error
	Delete(ctx context.Context, id string) error
}

// AdminHandler is the back office: catalog management plus the reservation
// lifecycle actions. All routes sit behind the admin role check; that check is
// advisory policy, the store's security rules are the real boundary.
type AdminHandler struct {
	Products     ProductAdmin
	Reservations reservation.Store
	Lifecycle    *reservation.Controller
	Uploader     *images.Uploader
	Redis        *redis.Client // reservation status cache; may be nil
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin)

		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
		r.Post("/products/{id}/image", h.uploadImage)

		r.Get("/reservations", h.listReservations)
		r.Get("/reservations/{id}", h.getReservation)
		r.Get("/reservations/{id}/status", h.reservationStatus)
		r.Post("/reservations/{id}/confirm", h.confirm)
		r.Post("/reservations/{id}/cancel", h.cancel)
	})
}

func (h *AdminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := r.URL.Query()
	products, err := h.Products.AdminList(ctx, q.Get("q"), q.Get("category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(products), "products": products})
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if p.Name == "" || p.Price <= 0 || p.Category == "" {
		writeError(w, http.StatusUnprocessableEntity, "name, price and category are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Create(ctx, &p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p.ID = chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Update(ctx, &p); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadImage stores the blob in the bucket and appends the returned URL to
// the product's image list.
func (h *AdminHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	if h.Uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "image storage not configured")
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	p, err := h.Products.Get(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	url, err := h.Uploader.Upload(ctx, id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p.Images = append(p.Images, url)
	if err := h.Products.Update(ctx, p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *AdminHandler) listReservations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.List(ctx) // newest first
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(list), "reservations": list})
}

func (h *AdminHandler) getReservation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	res, err := h.Reservations.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, reservation.ErrNotFound) {
		writeError(w, http.StatusNotFound, "reservation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// reservationStatus answers from the Redis cache when it can; the cache is
// refreshed by the lifecycle actions and on fallback reads.
func (h *AdminHandler) reservationStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyReservationStatus, id)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, map[string]string{"status": s})
			return
		}
	}

	res, err := h.Reservations.Get(ctx, id)
	if errors.Is(err, reservation.ErrNotFound) {
		writeError(w, http.StatusNotFound, "reservation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.cacheStatus(ctx, id, res.Status)
	writeJSON(w, http.StatusOK, map[string]string{"status": string(res.Status)})
}

func (h *AdminHandler) confirm(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Lifecycle.Confirm)
}

func (h *AdminHandler) cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Lifecycle.Cancel)
}

func (h *AdminHandler) lifecycle(w http.ResponseWriter, r *http.Request, act func(context.Context, string) (*reservation.Reservation, error)) {
	id := chi.URLParam(r, "id")

	// Lifecycle actions run to completion once issued.
	ctx := r.Context()

	res, err := act(ctx, id)
	if err != nil {
		var transition *reservation.TransitionError
		var mirror *reservation.MirrorError
		switch {
		case errors.Is(err, reservation.ErrNotFound):
			writeError(w, http.StatusNotFound, "reservation not found")
		case errors.As(err, &transition):
			writeError(w, http.StatusConflict, transition.Error())
		case errors.As(err, &mirror):
			// Reservation status did change; the admin must reconcile the
			// listed products by hand.
			h.cacheStatus(ctx, id, res.Status)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":          "reservation updated but product statuses are out of sync",
				"reservation_id": mirror.ReservationID,
				"product_ids":    mirror.ProductIDs,
			})
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.cacheStatus(ctx, id, res.Status)
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) cacheStatus(ctx context.Context, id string, st reservation.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyReservationStatus, id)
	_ = h.Redis.Set(ctx, key, string(st), redisx.TTLReservationStatus).Err()
}
