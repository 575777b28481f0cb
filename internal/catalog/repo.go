package catalog

import (
	"context"
	"errors"

	"github.com/ariefcatur/storefront-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, sku, name, description, category, price, discount, stock, status, created_at, updated_at`

// Repo is the Postgres ledger. DB may be the pool or an open transaction.
type Repo struct{ DB postgres.Querier }

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var status string
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category,
		&p.Price, &p.Discount, &p.Stock, &status, &p.CreatedAt, &p.UpdatedAt)
	p.Status = Status(status)
	return p, err
}

func (r *Repo) Get(ctx context.Context, productID string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, notFound(productID)
	}
	return p, err
}

// DecrementStock: cek & kurangi stok dalam satu statement, jadi dua request
// yang berebut unit terakhir tidak bisa lolos bersamaan.
func (r *Repo) DecrementStock(ctx context.Context, productID string, qty int) (Product, error) {
	if qty <= 0 {
		return Product{}, invalidQty(qty)
	}
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING `+productColumns, productID, qty))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Product{}, err
	}
	// no row: either missing or short on stock
	cur, err := r.Get(ctx, productID)
	if err != nil {
		return Product{}, err
	}
	return Product{}, &StockError{ProductID: cur.ID, Name: cur.Name, Requested: qty, Available: cur.Stock}
}

// List returns active products ordered by SKU.
func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE status <> 'inactive' ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert is used by the seed tool; stock is overwritten, not added.
func (r *Repo) Upsert(ctx context.Context, p Product) error {
	if p.Status == "" {
		p.Status = StatusActive
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products (id, sku, name, description, category, price, discount, stock, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			sku = EXCLUDED.sku, name = EXCLUDED.name, description = EXCLUDED.description,
			category = EXCLUDED.category, price = EXCLUDED.price, discount = EXCLUDED.discount,
			stock = EXCLUDED.stock, status = EXCLUDED.status, updated_at = now()`,
		p.ID, p.SKU, p.Name, p.Description, p.Category, p.Price, p.Discount, p.Stock, string(p.Status))
	return err
}
