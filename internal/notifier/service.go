// Package notifier consumes reservation lifecycle events and tells the
// customer what happened to their articles.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/sakkovic/winnersfrip/internal/kafka"
	"github.com/sakkovic/winnersfrip/internal/redisx"
	"github.com/sakkovic/winnersfrip/internal/reservation"
)

// Mailer sends one message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Service struct {
	Redis  *redis.Client
	Mailer Mailer
	Name   string // dedup namespace
}

// Handle is mounted as the consumer handler for all three reservation topics.
// Events are deduplicated on event_id so redeliveries do not re-mail the
// customer. An event without a customer email is logged and dropped: there is
// nobody to notify and retrying will not change that.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env reservation.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, s.Name, env.EventID)
		fresh, err := redisx.SetIfAbsent(ctx, s.Redis, dkey, redisx.TTLDedup)
		if err != nil {
			log.Printf("notifier: dedup check %s: %v", env.EventID, err)
		} else if !fresh {
			return nil
		}
	}

	switch env.EventType {
	case reservation.EventReservationCreated:
		p, err := kafkax.UnwrapPayload[reservation.ReservationCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.notify(ctx, p.CustomerEmail, env.CorrelationID,
			"Votre réservation est enregistrée",
			createdBody(p))
	case reservation.EventReservationConfirmed:
		p, err := kafkax.UnwrapPayload[reservation.ReservationConfirmedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.notify(ctx, p.CustomerEmail, env.CorrelationID,
			"Votre réservation est confirmée",
			fmt.Sprintf("Votre réservation %s est confirmée. Les articles vous attendent en boutique.", p.ReservationID))
	case reservation.EventReservationCancelled:
		p, err := kafkax.UnwrapPayload[reservation.ReservationCancelledPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.notify(ctx, p.CustomerEmail, env.CorrelationID,
			"Votre réservation est annulée",
			fmt.Sprintf("Votre réservation %s a été annulée. Les articles sont de nouveau disponibles.", p.ReservationID))
	default:
		return nil // not ours
	}
}

func (s *Service) notify(ctx context.Context, to, reservationID, subject, body string) error {
	if to == "" {
		log.Printf("notifier: reservation %s has no customer email, skipping", reservationID)
		return nil
	}
	if err := s.Mailer.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("notify %s: %w", reservationID, err)
	}
	return nil
}

func createdBody(p reservation.ReservationCreatedPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bonjour %s,\n\nNous avons bien reçu votre réservation (%d article(s)) :\n",
		p.CustomerName, len(p.Items))
	for _, it := range p.Items {
		fmt.Fprintf(&b, "  - %s : %.2f€\n", it.Name, it.EffectivePrice())
	}
	fmt.Fprintf(&b, "\nTotal : %.2f€\n\nNous vous contacterons rapidement au %s.\n", p.TotalAmount, p.CustomerPhone)
	return b.String()
}
