package cart

import (
	"errors"

	"github.com/sakkovic/winnersfrip/internal/catalog"
)

// ErrAlreadyInCart signals that the article is already reserved in this cart.
// Every article is unique, so adding twice is a user mistake to surface, not
// a quantity bump. The cart itself is left untouched.
var ErrAlreadyInCart = errors.New("article already in cart")

// Item is a snapshot of a product at the moment it was added. Later catalog
// edits do not reach into carts.
type Item struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	PromoPrice *float64 `json:"promo_price,omitempty"`
	Image      string   `json:"image,omitempty"`
	Size       string   `json:"size,omitempty"`
}

// EffectivePrice is the promo price when set, the base price otherwise.
func (it Item) EffectivePrice() float64 {
	if it.PromoPrice != nil {
		return *it.PromoPrice
	}
	return it.Price
}

// Snapshot copies the cart-relevant fields out of a catalog product. Only a
// promoted product carries its promo price into the snapshot.
func Snapshot(p catalog.Product) Item {
	it := Item{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.Image(),
		Size:  p.Size,
	}
	if p.IsPromo && p.PromoPrice != nil {
		promo := *p.PromoPrice
		it.PromoPrice = &promo
	}
	return it
}

// Cart is an ordered set of product snapshots keyed by product id. One cart
// per browsing session, one writer by construction, so no locking here.
type Cart struct {
	items []Item
}

func New(items ...Item) *Cart {
	c := &Cart{}
	for _, it := range items {
		if !c.Contains(it.ID) {
			c.items = append(c.items, it)
		}
	}
	return c
}

// Add appends the snapshot unless the product is already present, in which
// case it returns ErrAlreadyInCart and changes nothing.
func (c *Cart) Add(it Item) error {
	if c.Contains(it.ID) {
		return ErrAlreadyInCart
	}
	c.items = append(c.items, it)
	return nil
}

// Remove drops the entry for productID. Removing an absent id is a no-op.
func (c *Cart) Remove(productID string) {
	for i, it := range c.items {
		if it.ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() { c.items = nil }

func (c *Cart) Contains(productID string) bool {
	for _, it := range c.items {
		if it.ID == productID {
			return true
		}
	}
	return false
}

// Total is recomputed on every call from the effective prices, never cached.
func (c *Cart) Total() float64 {
	var total float64
	for _, it := range c.items {
		total += it.EffectivePrice()
	}
	return total
}

func (c *Cart) Len() int { return len(c.items) }

// Items returns a copy; callers cannot mutate the cart through it.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}
