package catalog

import "time"

type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
)

// Product is a single second-hand article in the shop. There is exactly one
// physical item per product, so status doubles as the stock level.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        float64   `json:"price"`
	PromoPrice   *float64  `json:"promo_price,omitempty"`
	IsPromo      bool      `json:"is_promo"`
	IsNewArrival bool      `json:"is_new_arrival"`
	Category     string    `json:"category"`
	Size         string    `json:"size,omitempty"`
	Condition    string    `json:"condition,omitempty"` // neuf | comme_neuf | seconde_main
	Origin       string    `json:"origin,omitempty"`    // europe | local
	Style        string    `json:"style,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	Color        string    `json:"color,omitempty"`
	Images       []string  `json:"images,omitempty"`
	Status       Status    `json:"status"`
	ReservedBy   string    `json:"reserved_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EffectivePrice is what the customer actually pays: the promo price when the
// article is on promotion, the base price otherwise.
func (p Product) EffectivePrice() float64 {
	if p.IsPromo && p.PromoPrice != nil {
		return *p.PromoPrice
	}
	return p.Price
}

// Image returns the primary image, if any.
func (p Product) Image() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}
