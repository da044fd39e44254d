package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a product does not exist (or is not visible
// to the requesting owner).
var ErrNotFound = errors.New("product not found")

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, owner_id, url, name, current_price, currency, COALESCE(image_url, ''), created_at, updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.OwnerID, &p.URL, &p.Name, &p.CurrentPrice, &p.Currency, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
}

// All returns every tracked product across all owners. Used by the sweep,
// which runs with service-level privilege.
func (r *Repository) All(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *Repository) ByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err := scanProduct(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ByOwnerAndURL returns (nil, nil) when no product matches; (owner, url) is
// the natural key used to deduplicate submissions.
func (r *Repository) ByOwnerAndURL(ctx context.Context, ownerID, url string) (*Product, error) {
	var p Product
	row := r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE owner_id = $1 AND url = $2`, ownerID, url)
	if err := scanProduct(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Upsert inserts the product or, on (owner_id, url) conflict, unconditionally
// refreshes the mutable fields. The passed struct gets its id and timestamps
// filled in.
func (r *Repository) Upsert(ctx context.Context, p *Product) error {
	const q = `
INSERT INTO products (id, owner_id, url, name, current_price, currency, image_url)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
ON CONFLICT (owner_id, url) DO UPDATE SET
	name          = EXCLUDED.name,
	current_price = EXCLUDED.current_price,
	currency      = EXCLUDED.currency,
	image_url     = EXCLUDED.image_url,
	updated_at    = now()
RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q,
		uuid.NewString(), p.OwnerID, p.URL, p.Name, p.CurrentPrice, p.Currency, p.ImageURL).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// UpdateSnapshot persists the fields refreshed by a reconciliation pass.
func (r *Repository) UpdateSnapshot(ctx context.Context, id string, s Snapshot) error {
	ct, err := r.db.Exec(ctx, `
UPDATE products
SET name = $2, current_price = $3, currency = $4, image_url = NULLIF($5, ''), updated_at = now()
WHERE id = $1`,
		id, s.Name, s.Price, s.Currency, s.ImageURL)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an owner's product; history rows cascade.
func (r *Repository) Delete(ctx context.Context, ownerID, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) InsertHistory(ctx context.Context, productID string, price float64, currency string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO price_history (product_id, price, currency) VALUES ($1, $2, $3)`,
		productID, price, currency)
	return err
}

// HistoryByProduct returns the ledger in chronological order.
func (r *Repository) HistoryByProduct(ctx context.Context, productID string) ([]PriceHistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, product_id, price, currency, created_at
FROM price_history
WHERE product_id = $1
ORDER BY created_at ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceHistoryEntry
	for rows.Next() {
		var e PriceHistoryEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.Price, &e.Currency, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
