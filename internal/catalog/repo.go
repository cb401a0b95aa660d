package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, name, description, price, promo_price, is_promo, is_new_arrival,
	category, size, condition, origin, style, gender, color, images,
	status, reserved_by, created_at, updated_at`

// List returns the whole catalog newest-first. The shop relies on this order:
// SortNewest is a stable no-op on top of it.
func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productCols+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// AdminList is the back-office listing: optional name substring (case
// insensitive) and optional single category. Simpler needs than the shop
// filter, so it goes straight to SQL.
func (r *Repo) AdminList(ctx context.Context, name, category string) ([]Product, error) {
	q := `SELECT ` + productCols + ` FROM products WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		AND ($2 = '' OR category = $2) ORDER BY created_at DESC`
	rows, err := r.DB.Query(ctx, q, name, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusAvailable
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products (id, name, description, price, promo_price, is_promo, is_new_arrival,
			category, size, condition, origin, style, gender, color, images,
			status, reserved_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		p.ID, p.Name, p.Description, p.Price, p.PromoPrice, p.IsPromo, p.IsNewArrival,
		p.Category, p.Size, p.Condition, p.Origin, p.Style, p.Gender, p.Color, p.Images,
		p.Status, nullIfEmpty(p.ReservedBy), p.CreatedAt, p.UpdatedAt)
	return err
}

// Update rewrites the catalog attributes of a product. Status and reserved_by
// are deliberately left alone: only checkout and the admin lifecycle actions
// may touch those.
func (r *Repo) Update(ctx context.Context, p *Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET name=$2, description=$3, price=$4, promo_price=$5, is_promo=$6,
			is_new_arrival=$7, category=$8, size=$9, condition=$10, origin=$11, style=$12,
			gender=$13, color=$14, images=$15, updated_at=$16
		WHERE id=$1`,
		p.ID, p.Name, p.Description, p.Price, p.PromoPrice, p.IsPromo,
		p.IsNewArrival, p.Category, p.Size, p.Condition, p.Origin, p.Style,
		p.Gender, p.Color, p.Images, time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	var reservedBy *string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.PromoPrice, &p.IsPromo,
		&p.IsNewArrival, &p.Category, &p.Size, &p.Condition, &p.Origin, &p.Style,
		&p.Gender, &p.Color, &p.Images, &p.Status, &reservedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reservedBy != nil {
		p.ReservedBy = *reservedBy
	}
	return &p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
