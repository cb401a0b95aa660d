package reservation

import (
	"context"
	"log"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/sakkovic/winnersfrip/internal/catalog"
	kafkax "github.com/sakkovic/winnersfrip/internal/kafka"
)

// Controller drives the admin side of the reservation lifecycle:
//
//	pending --confirm--> confirmed   (articles reserved -> sold)
//	pending --cancel---> cancelled   (articles reserved -> available, hold cleared)
//
// confirmed and cancelled are terminal; re-running an action on them is
// rejected with a TransitionError instead of silently re-flipping articles.
//
// Each transition is two writes. The reservation write commits first; if the
// product mirror then fails the stores disagree and the caller gets a
// MirrorError with enough context for manual reconciliation. Only checkout
// needs hard atomicity, this path accepts the inconsistency window.
type Controller struct {
	Store         Store
	EventsConfirm Publisher // reservation.confirmed; may be nil
	EventsCancel  Publisher // reservation.cancelled; may be nil
	Service       string
}

func (c *Controller) Confirm(ctx context.Context, id string) (*Reservation, error) {
	return c.transition(ctx, id, StatusConfirmed)
}

func (c *Controller) Cancel(ctx context.Context, id string) (*Reservation, error) {
	return c.transition(ctx, id, StatusCancelled)
}

func (c *Controller) transition(ctx context.Context, id string, to Status) (*Reservation, error) {
	res, err := c.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(res.Status, to) {
		return nil, &TransitionError{ReservationID: id, From: res.Status, To: to}
	}

	if err := c.Store.SetStatus(ctx, id, to); err != nil {
		return nil, err
	}
	res.Status = to

	productStatus := catalog.StatusSold
	reservedBy := res.CustomerID // a sold article keeps its buyer
	if to == StatusCancelled {
		productStatus = catalog.StatusAvailable
		reservedBy = "" // back on sale, hold cleared
	}

	ids := res.ProductIDs()
	if err := c.Store.MirrorProducts(ctx, ids, productStatus, reservedBy); err != nil {
		merr := &MirrorError{ReservationID: id, ProductIDs: ids, Err: err}
		log.Printf("data integrity: %v", merr)
		return res, merr
	}

	c.publish(ctx, res, to)
	return res, nil
}

func (c *Controller) publish(ctx context.Context, res *Reservation, to Status) {
	var (
		pub       Publisher
		eventType string
		payload   any
	)
	switch to {
	case StatusConfirmed:
		pub, eventType = c.EventsConfirm, EventReservationConfirmed
		payload = ReservationConfirmedPayload{
			ReservationID: res.ID,
			CustomerID:    res.CustomerID,
			CustomerEmail: res.CustomerEmail,
			ProductIDs:    res.ProductIDs(),
		}
	case StatusCancelled:
		pub, eventType = c.EventsCancel, EventReservationCancelled
		payload = ReservationCancelledPayload{
			ReservationID: res.ID,
			CustomerID:    res.CustomerID,
			CustomerEmail: res.CustomerEmail,
			ProductIDs:    res.ProductIDs(),
		}
	}
	if pub == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      c.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: res.ID,
		Payload:       kafkax.MustMarshal(payload),
	}
	pub.Publish(PartitionKey(res.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
