package reservation

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/sakkovic/winnersfrip/internal/cart"
	kafkax "github.com/sakkovic/winnersfrip/internal/kafka"
)

// Publisher is the slice of the kafka producer the orchestrator needs.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Customer is the authenticated principal plus the contact fields collected
// in the checkout form.
type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// Orchestrator converts a cart into a pending reservation, holding every
// referenced article atomically.
type Orchestrator struct {
	Store   Store
	Carts   cart.Store
	Events  Publisher // reservation.created; may be nil
	Service string
}

// Checkout runs the reservation flow for one session.
//
// Validation happens before any store call. The store write is all-or-nothing:
// on a *ConflictError nothing was persisted and the cart is left untouched so
// the customer can retry after dropping the named articles. Only on success is
// the session cart cleared.
func (o *Orchestrator) Checkout(ctx context.Context, sessionID string, c *cart.Cart, cust Customer) (*Reservation, error) {
	if c == nil || c.Len() == 0 {
		return nil, ErrEmptyCart
	}
	if strings.TrimSpace(cust.Name) == "" || strings.TrimSpace(cust.Phone) == "" {
		return nil, ErrMissingContact
	}

	items := make([]LineItem, 0, c.Len())
	for _, it := range c.Items() {
		items = append(items, LineItem{
			ProductID:  it.ID,
			Name:       it.Name,
			Price:      it.Price,
			PromoPrice: it.PromoPrice,
			Image:      it.Image,
		})
	}

	res := &Reservation{
		ID:            uuid.NewString(),
		CustomerID:    cust.ID,
		CustomerName:  cust.Name,
		CustomerEmail: cust.Email,
		CustomerPhone: cust.Phone,
		Status:        StatusPending,
		Items:         items,
		TotalAmount:   c.Total(),
		CreatedAt:     time.Now().UTC(),
	}

	if err := o.Store.CreateHoldingProducts(ctx, res); err != nil {
		return nil, err
	}

	// The reservation is durable from here on. Cart cleanup is advisory; a
	// leftover cart only means the customer sees already-reserved articles.
	if err := o.Carts.Delete(ctx, sessionID); err != nil {
		log.Printf("checkout %s: clear cart: %v", res.ID, err)
	}

	o.publishCreated(ctx, res)
	return res, nil
}

func (o *Orchestrator) publishCreated(ctx context.Context, res *Reservation) {
	if o.Events == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventReservationCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      o.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: res.ID,
		Payload: kafkax.MustMarshal(ReservationCreatedPayload{
			ReservationID: res.ID,
			CustomerID:    res.CustomerID,
			CustomerName:  res.CustomerName,
			CustomerEmail: res.CustomerEmail,
			CustomerPhone: res.CustomerPhone,
			Items:         res.Items,
			TotalAmount:   res.TotalAmount,
		}),
	}
	o.Events.Publish(PartitionKey(res.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventReservationCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
