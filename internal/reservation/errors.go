package reservation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("reservation not found")

	// Validation errors: rejected before any store call.
	ErrEmptyCart      = errors.New("cart is empty")
	ErrMissingContact = errors.New("customer name and phone are required")
)

// ConflictError aborts a checkout when at least one article is no longer
// available. Nothing has been written when it is returned; the cart is intact
// so the customer can drop the listed articles and retry.
type ConflictError struct {
	ProductIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("articles no longer available: %s", strings.Join(e.ProductIDs, ", "))
}

// TransitionError rejects an admin action on a reservation whose status does
// not allow it, e.g. confirming an already cancelled reservation.
type TransitionError struct {
	ReservationID string
	From, To      Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("reservation %s: cannot transition %s -> %s", e.ReservationID, e.From, e.To)
}

// MirrorError reports that the reservation-side write succeeded but mirroring
// the status onto one or more products failed. The stores are now out of sync
// and need manual reconciliation; this is never swallowed.
type MirrorError struct {
	ReservationID string
	ProductIDs    []string
	Err           error
}

func (e *MirrorError) Error() string {
	return fmt.Sprintf("reservation %s updated but product mirror failed for %s: %v",
		e.ReservationID, strings.Join(e.ProductIDs, ", "), e.Err)
}

func (e *MirrorError) Unwrap() error { return e.Err }
