package reservation

import (
	"encoding/json"
	"time"
)

const (
	EventReservationCreated   = "ReservationCreated"
	EventReservationConfirmed = "ReservationConfirmed"
	EventReservationCancelled = "ReservationCancelled"
)

const (
	TopicReservationCreated   = "reservation.created"
	TopicReservationConfirmed = "reservation.confirmed"
	TopicReservationCancelled = "reservation.cancelled"
)

// PartitionKey keeps all events of one reservation on one partition so their
// order is preserved.
func PartitionKey(reservationID string) []byte { return []byte(reservationID) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // reservation_id
	Payload       json.RawMessage `json:"payload"`
}

type ReservationCreatedPayload struct {
	ReservationID string     `json:"reservation_id"`
	CustomerID    string     `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	CustomerPhone string     `json:"customer_phone"`
	Items         []LineItem `json:"items"`
	TotalAmount   float64    `json:"total_amount"`
}

type ReservationConfirmedPayload struct {
	ReservationID string   `json:"reservation_id"`
	CustomerID    string   `json:"customer_id"`
	CustomerEmail string   `json:"customer_email,omitempty"`
	ProductIDs    []string `json:"product_ids"`
}

type ReservationCancelledPayload struct {
	ReservationID string   `json:"reservation_id"`
	CustomerID    string   `json:"customer_id"`
	CustomerEmail string   `json:"customer_email,omitempty"`
	ProductIDs    []string `json:"product_ids"` // back on sale
}
