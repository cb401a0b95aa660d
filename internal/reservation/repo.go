package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakkovic/winnersfrip/internal/catalog"
)

// Repo implements Store on Postgres.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

// CreateHoldingProducts locks every referenced product row (FOR UPDATE),
// verifies it is still available, then writes the reservation, its line items
// and the product transitions in one transaction. Row locks make two
// concurrent checkouts on a shared article serialize: the loser sees status
// 'reserved' and gets a ConflictError, with nothing committed.
func (r *Repo) CreateHoldingProducts(ctx context.Context, res *Reservation) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var conflicts []string
	for _, it := range res.Items {
		var status catalog.Status
		err := tx.QueryRow(ctx, `SELECT status FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			conflicts = append(conflicts, it.ProductID)
			continue
		}
		if err != nil {
			return err
		}
		if status != catalog.StatusAvailable {
			conflicts = append(conflicts, it.ProductID)
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{ProductIDs: conflicts} // rollback via defer
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (id, customer_id, customer_name, customer_email, customer_phone,
			status, total_amount, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		res.ID, res.CustomerID, res.CustomerName, res.CustomerEmail, res.CustomerPhone,
		res.Status, res.TotalAmount, res.CreatedAt)
	if err != nil {
		return err
	}

	for i, it := range res.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO reservation_items (reservation_id, position, product_id, name, price, promo_price, image)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			res.ID, i, it.ProductID, it.Name, it.Price, it.PromoPrice, it.Image)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE products SET status=$2, reserved_by=$3, updated_at=$4 WHERE id=$1`,
			it.ProductID, catalog.StatusReserved, res.CustomerID, time.Now().UTC())
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, id string) (*Reservation, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, customer_id, customer_name, customer_email, customer_phone, status, total_amount, created_at
		FROM reservations WHERE id=$1`, id)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Items = items
	return res, nil
}

func (r *Repo) List(ctx context.Context) ([]Reservation, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, customer_id, customer_name, customer_email, customer_phone, status, total_amount, created_at
		FROM reservations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := r.loadItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *Repo) SetStatus(ctx context.Context, id string, st Status) error {
	ct, err := r.DB.Exec(ctx, `UPDATE reservations SET status=$2 WHERE id=$1`, id, st)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) MirrorProducts(ctx context.Context, productIDs []string, st catalog.Status, reservedBy string) error {
	var rb *string
	if reservedBy != "" {
		rb = &reservedBy
	}
	for _, id := range productIDs {
		_, err := r.DB.Exec(ctx, `UPDATE products SET status=$2, reserved_by=$3, updated_at=$4 WHERE id=$1`,
			id, st, rb, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("product %s: %w", id, err)
		}
	}
	return nil
}

func (r *Repo) loadItems(ctx context.Context, reservationID string) ([]LineItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, name, price, promo_price, image
		FROM reservation_items WHERE reservation_id=$1 ORDER BY position`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.PromoPrice, &it.Image); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var res Reservation
	var email *string
	err := row.Scan(&res.ID, &res.CustomerID, &res.CustomerName, &email, &res.CustomerPhone,
		&res.Status, &res.TotalAmount, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	if email != nil {
		res.CustomerEmail = *email
	}
	return &res, nil
}
