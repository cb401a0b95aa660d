package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakkovic/winnersfrip/internal/catalog"
)

// ProductSource is the read side of the catalog the shop needs.
type ProductSource interface {
	List(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (*catalog.Product, error)
}

// ShopHandler serves the customer-facing catalog: the full product grid
// narrowed by the facet selection carried in the query string.
type ShopHandler struct {
	Products ProductSource
}

func (h *ShopHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
}

// list runs the filter engine over the catalog.
//
//	GET /products?q=veste&category=hauts&category=vestes&price=0-20&promo=true&sort=price-asc
//
// Multi-valued facets repeat the parameter; an absent facet accepts all.
func (h *ShopHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Products.List(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sel, key := selectionFromQuery(r)
	out := catalog.Filter(products, sel, key)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(out),
		"products": out,
	})
}

func (h *ShopHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func selectionFromQuery(r *http.Request) (catalog.Selection, catalog.Sort) {
	q := r.URL.Query()
	sel := catalog.Selection{
		Search:    q.Get("q"),
		Category:  q["category"],
		Condition: q["condition"],
		Origin:    q["origin"],
		Size:      q["size"],
		Style:     q["style"],
		Gender:    q["gender"],
		Color:     q["color"],
		Price:     q["price"],
		PromoOnly: q.Get("promo") == "true" || q.Get("promo") == "1",
	}
	key := catalog.Sort(q.Get("sort"))
	switch key {
	case catalog.SortPriceAsc, catalog.SortPriceDesc:
	default:
		key = catalog.SortNewest
	}
	return sel, key
}
