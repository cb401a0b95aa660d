package reservation

import "time"

// LineItem is a snapshot of one cart entry taken at reservation time. Catalog
// edits after checkout never reach back into a placed reservation.
type LineItem struct {
	ProductID  string   `json:"product_id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	PromoPrice *float64 `json:"promo_price,omitempty"`
	Image      string   `json:"image,omitempty"`
}

func (li LineItem) EffectivePrice() float64 {
	if li.PromoPrice != nil {
		return *li.PromoPrice
	}
	return li.Price
}

// Reservation blocks one or more articles for a customer until an admin
// confirms the sale or cancels. Never deleted: it is the audit trail.
type Reservation struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	CustomerPhone string     `json:"customer_phone"`
	Status        Status     `json:"status"`
	Items         []LineItem `json:"items"`
	TotalAmount   float64    `json:"total_amount"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ProductIDs lists the articles this reservation holds.
func (r *Reservation) ProductIDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
