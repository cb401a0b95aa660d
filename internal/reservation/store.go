package reservation

import (
	"context"

	"github.com/sakkovic/winnersfrip/internal/catalog"
)

// Store is the persistence port for reservations and the product status
// transitions they drive.
type Store interface {
	// CreateHoldingProducts persists res and flips every referenced product
	// available -> reserved (reservedBy = customer) as one atomic unit.
	// When any product is missing or not available it writes nothing and
	// returns a *ConflictError listing the offenders. Under two concurrent
	// checkouts sharing a product exactly one call succeeds.
	CreateHoldingProducts(ctx context.Context, res *Reservation) error

	Get(ctx context.Context, id string) (*Reservation, error)

	// List returns all reservations newest-first.
	List(ctx context.Context) ([]Reservation, error)

	SetStatus(ctx context.Context, id string, st Status) error

	// MirrorProducts applies the admin-side product transition. reservedBy is
	// stored as-is; pass "" to clear it when an article goes back on sale.
	// Best effort only: the caller turns a failure into a MirrorError.
	MirrorProducts(ctx context.Context, productIDs []string, st catalog.Status, reservedBy string) error
}
