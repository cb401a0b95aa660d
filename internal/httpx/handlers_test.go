package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakkovic/winnersfrip/internal/auth"
	"github.com/sakkovic/winnersfrip/internal/cart"
	"github.com/sakkovic/winnersfrip/internal/catalog"
	"github.com/sakkovic/winnersfrip/internal/reservation"
)

// fakeCatalog backs both the shop and the back office in tests.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]*catalog.Product
	order    []string
}

func newFakeCatalog(products ...catalog.Product) *fakeCatalog {
	f := &fakeCatalog{products: make(map[string]*catalog.Product)}
	for i := range products {
		p := products[i]
		if p.Status == "" {
			p.Status = catalog.StatusAvailable
		}
		f.products[p.ID] = &p
		f.order = append(f.order, p.ID)
	}
	return f
}

func (f *fakeCatalog) List(_ context.Context) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]catalog.Product, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, *f.products[id])
	}
	return out, nil
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalog) AdminList(_ context.Context, name, category string) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []catalog.Product
	for _, id := range f.order {
		p := f.products[id]
		if name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeCatalog) Create(_ context.Context, p *catalog.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = fmt.Sprintf("gen-%d", len(f.order)+1)
	}
	if p.Status == "" {
		p.Status = catalog.StatusAvailable
	}
	cp := *p
	f.products[p.ID] = &cp
	f.order = append(f.order, p.ID)
	return nil
}

func (f *fakeCatalog) Update(_ context.Context, p *catalog.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.products[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	p.Status, p.ReservedBy = cur.Status, cur.ReservedBy
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeCatalog) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(f.products, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeCatalog) setStatus(id string, st catalog.Status, reservedBy string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[id].Status = st
	f.products[id].ReservedBy = reservedBy
}

// fakeReservations is just enough of reservation.Store for the handlers.
type fakeReservations struct {
	mu           sync.Mutex
	catalog      *fakeCatalog
	reservations map[string]*reservation.Reservation
	order        []string
}

func newFakeReservations(c *fakeCatalog) *fakeReservations {
	return &fakeReservations{catalog: c, reservations: make(map[string]*reservation.Reservation)}
}

func (f *fakeReservations) CreateHoldingProducts(_ context.Context, res *reservation.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog.mu.Lock()
	defer f.catalog.mu.Unlock()

	var conflicts []string
	for _, id := range res.ProductIDs() {
		p, ok := f.catalog.products[id]
		if !ok || p.Status != catalog.StatusAvailable {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return &reservation.ConflictError{ProductIDs: conflicts}
	}
	cp := *res
	f.reservations[res.ID] = &cp
	f.order = append(f.order, res.ID)
	for _, id := range res.ProductIDs() {
		f.catalog.products[id].Status = catalog.StatusReserved
		f.catalog.products[id].ReservedBy = res.CustomerID
	}
	return nil
}

func (f *fakeReservations) Get(_ context.Context, id string) (*reservation.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeReservations) List(_ context.Context) ([]reservation.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]reservation.Reservation, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		out = append(out, *f.reservations[f.order[i]])
	}
	return out, nil
}

func (f *fakeReservations) SetStatus(_ context.Context, id string, st reservation.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return reservation.ErrNotFound
	}
	res.Status = st
	return nil
}

func (f *fakeReservations) MirrorProducts(_ context.Context, productIDs []string, st catalog.Status, reservedBy string) error {
	for _, id := range productIDs {
		f.catalog.setStatus(id, st, reservedBy)
	}
	return nil
}

var _ reservation.Store = (*fakeReservations)(nil)

func shopFixture() *fakeCatalog {
	promo := 15.0
	return newFakeCatalog(
		catalog.Product{ID: "p1", Name: "Veste en jean", Category: "vestes", Price: 45},
		catalog.Product{ID: "p2", Name: "T-shirt noir", Category: "hauts", Price: 20},
		catalog.Product{ID: "p3", Name: "Robe d'été", Category: "robes", Price: 65, IsPromo: true, PromoPrice: &promo},
	)
}

type listResp struct {
	Count    int               `json:"count"`
	Products []catalog.Product `json:"products"`
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any, header map[string]string) (*httptest.ResponseRecorder, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, rec.Body.Bytes()
}

func TestShopListAppliesSelection(t *testing.T) {
	r := chi.NewRouter()
	(&ShopHandler{Products: shopFixture()}).Register(r)

	rec, body := doJSON(t, r, http.MethodGet, "/products", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got listResp
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 3, got.Count)

	// Repeated facet params are OR'd.
	rec, body = doJSON(t, r, http.MethodGet, "/products?category=hauts&category=robes", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 2, got.Count)

	rec, body = doJSON(t, r, http.MethodGet, "/products?promo=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "p3", got.Products[0].ID)

	rec, body = doJSON(t, r, http.MethodGet, "/products?sort=price-asc", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, 3, got.Count)
	assert.Equal(t, "p2", got.Products[0].ID)
	assert.Equal(t, "p3", got.Products[2].ID)

	// An unknown sort falls back to newest, i.e. the source order.
	rec, body = doJSON(t, r, http.MethodGet, "/products?sort=garbage", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "p1", got.Products[0].ID)
}

func TestShopGetUnknownProduct(t *testing.T) {
	r := chi.NewRouter()
	(&ShopHandler{Products: shopFixture()}).Register(r)

	rec, _ := doJSON(t, r, http.MethodGet, "/products/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartEndpoints(t *testing.T) {
	r := chi.NewRouter()
	(&CartHandler{Products: shopFixture(), Carts: cart.NewMemoryStore()}).Register(r)

	sess := map[string]string{"X-Session-Id": "sess-1"}

	// No session header is a client error.
	rec, _ := doJSON(t, r, http.MethodGet, "/cart", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var got cartResp
	rec, body := doJSON(t, r, http.MethodPost, "/cart/items", map[string]string{"product_id": "p1"}, sess)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 1, got.Count)
	assert.False(t, got.AlreadyInCart)

	// Adding the same article again: 200, unchanged cart, flag set.
	rec, body = doJSON(t, r, http.MethodPost, "/cart/items", map[string]string{"product_id": "p1"}, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 1, got.Count)
	assert.True(t, got.AlreadyInCart)

	rec, _ = doJSON(t, r, http.MethodPost, "/cart/items", map[string]string{"product_id": "nope"}, sess)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPost, "/cart/items", map[string]string{}, sess)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The cart survives across requests of the same session.
	rec, body = doJSON(t, r, http.MethodGet, "/cart", nil, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 1, got.Count)
	assert.InDelta(t, 45.0, got.Total, 1e-9)

	// Another session sees an empty cart.
	rec, body = doJSON(t, r, http.MethodGet, "/cart", nil, map[string]string{"X-Session-Id": "sess-2"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 0, got.Count)

	rec, body = doJSON(t, r, http.MethodDelete, "/cart/items/p1", nil, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 0, got.Count)

	rec, _ = doJSON(t, r, http.MethodDelete, "/cart", nil, sess)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// asPrincipal injects an authenticated identity, standing in for the Firebase
// token middleware.
func asPrincipal(p auth.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

func checkoutRig(t *testing.T) (*chi.Mux, *fakeCatalog, cart.Store) {
	t.Helper()
	cat := shopFixture()
	carts := cart.NewMemoryStore()
	orch := &reservation.Orchestrator{Store: newFakeReservations(cat), Carts: carts}

	r := chi.NewRouter()
	r.Use(asPrincipal(auth.Principal{UID: "uid-cust", Email: "amel@example.com", Name: "Amel B"}))
	(&CheckoutHandler{Carts: carts, Orchestrator: orch}).Register(r)
	return r, cat, carts
}

func TestCheckoutHandler(t *testing.T) {
	r, _, carts := checkoutRig(t)
	sess := map[string]string{"X-Session-Id": "sess-1"}

	// Empty cart is rejected before anything is written.
	rec, _ := doJSON(t, r, http.MethodPost, "/checkout", map[string]string{"phone": "+33600000000"}, sess)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	c := cart.New(cart.Item{ID: "p1", Name: "Veste en jean", Price: 45})
	require.NoError(t, carts.Save(context.Background(), "sess-1", c))

	// Missing phone.
	rec, _ = doJSON(t, r, http.MethodPost, "/checkout", map[string]string{}, sess)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Name falls back to the principal's display name.
	rec, body := doJSON(t, r, http.MethodPost, "/checkout", map[string]string{"phone": "+33600000000"}, sess)
	require.Equal(t, http.StatusCreated, rec.Code)
	var res reservation.Reservation
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, reservation.StatusPending, res.Status)
	assert.Equal(t, "Amel B", res.CustomerName)
	assert.Equal(t, "uid-cust", res.CustomerID)
	assert.InDelta(t, 45.0, res.TotalAmount, 1e-9)
}

func TestCheckoutHandlerConflict(t *testing.T) {
	r, cat, carts := checkoutRig(t)
	sess := map[string]string{"X-Session-Id": "sess-1"}

	c := cart.New(cart.Item{ID: "p1", Price: 45})
	require.NoError(t, carts.Save(context.Background(), "sess-1", c))
	cat.setStatus("p1", catalog.StatusReserved, "someone-else")

	rec, body := doJSON(t, r, http.MethodPost, "/checkout", map[string]string{"phone": "+33600000000"}, sess)
	require.Equal(t, http.StatusConflict, rec.Code)

	var got struct {
		ProductIDs []string `json:"product_ids"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, []string{"p1"}, got.ProductIDs)

	// The cart was kept for the retry.
	after, err := carts.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, after.Len())
}

func TestCheckoutRequiresAuth(t *testing.T) {
	cat := shopFixture()
	carts := cart.NewMemoryStore()
	orch := &reservation.Orchestrator{Store: newFakeReservations(cat), Carts: carts}

	r := chi.NewRouter()
	(&CheckoutHandler{Carts: carts, Orchestrator: orch}).Register(r)

	rec, _ := doJSON(t, r, http.MethodPost, "/checkout",
		map[string]string{"phone": "+33600000000"}, map[string]string{"X-Session-Id": "sess-1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func adminRig(t *testing.T) (*chi.Mux, *fakeCatalog, *fakeReservations) {
	t.Helper()
	cat := shopFixture()
	store := newFakeReservations(cat)

	r := chi.NewRouter()
	r.Use(asPrincipal(auth.Principal{UID: "uid-admin", Role: auth.RoleAdmin}))
	(&AdminHandler{
		Products:     cat,
		Reservations: store,
		Lifecycle:    &reservation.Controller{Store: store},
	}).Register(r)
	return r, cat, store
}

func TestAdminRequiresAdminRole(t *testing.T) {
	cat := shopFixture()
	store := newFakeReservations(cat)

	r := chi.NewRouter()
	r.Use(asPrincipal(auth.Principal{UID: "uid-cust"}))
	(&AdminHandler{Products: cat, Reservations: store, Lifecycle: &reservation.Controller{Store: store}}).Register(r)

	rec, _ := doJSON(t, r, http.MethodGet, "/admin/products", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminProductCRUD(t *testing.T) {
	r, _, _ := adminRig(t)

	rec, body := doJSON(t, r, http.MethodPost, "/admin/products",
		catalog.Product{Name: "Chemise noire", Price: 50, Category: "hauts"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created catalog.Product
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, catalog.StatusAvailable, created.Status)

	// Missing required fields.
	rec, _ = doJSON(t, r, http.MethodPost, "/admin/products", catalog.Product{Name: "Sans prix"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	created.Price = 55
	rec, _ = doJSON(t, r, http.MethodPut, "/admin/products/"+created.ID, created, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPut, "/admin/products/nope", created, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = doJSON(t, r, http.MethodGet, "/admin/products?q=chemise", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got listResp
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 1, got.Count)

	rec, _ = doJSON(t, r, http.MethodDelete, "/admin/products/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = doJSON(t, r, http.MethodDelete, "/admin/products/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminReservationLifecycle(t *testing.T) {
	r, cat, store := adminRig(t)

	// Seed a pending reservation the way checkout does.
	orch := &reservation.Orchestrator{Store: store, Carts: cart.NewMemoryStore()}
	res, err := orch.Checkout(context.Background(), "sess",
		cart.New(cart.Item{ID: "p1", Name: "Veste en jean", Price: 45}),
		reservation.Customer{ID: "uid-cust", Name: "Amel B", Phone: "+33600000000"})
	require.NoError(t, err)

	rec, body := doJSON(t, r, http.MethodGet, "/admin/reservations", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Count)

	// Status falls back to the store when no cache is wired.
	rec, body = doJSON(t, r, http.MethodGet, "/admin/reservations/"+res.ID+"/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st map[string]string
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, "pending", st["status"])

	rec, body = doJSON(t, r, http.MethodPost, "/admin/reservations/"+res.ID+"/confirm", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var confirmed reservation.Reservation
	require.NoError(t, json.Unmarshal(body, &confirmed))
	assert.Equal(t, reservation.StatusConfirmed, confirmed.Status)

	p, err := cat.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusSold, p.Status)
	assert.Equal(t, "uid-cust", p.ReservedBy)

	// Terminal: a second action is a conflict.
	rec, _ = doJSON(t, r, http.MethodPost, "/admin/reservations/"+res.ID+"/cancel", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPost, "/admin/reservations/nope/confirm", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
