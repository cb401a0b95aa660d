package redisx

import "time"

const (
	// Cart per browsing session: cart:{session_id} -> versioned JSON blob
	KeyCart = "cart:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Cache of a reservation status for fast admin polling: resv_status:{id}
	KeyReservationStatus = "resv_status:%s"
)

var (
	TTLCart              = 30 * 24 * time.Hour
	TTLDedup             = 48 * time.Hour
	TTLReservationStatus = 5 * time.Minute
)
