package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/ariefcatur/storefront-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, user_id, total_amount, shipping_fee, grand_total, payment_method, bank_used,
	payment_status, order_status, shipping_address, note, created_at, updated_at`

// Repo persists orders. DB may be the pool or an open transaction.
type Repo struct{ DB postgres.Querier }

func notFound(id string) error {
	return fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var pay, st string
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.ShippingFee, &o.GrandTotal, &o.PaymentMethod,
		&o.BankUsed, &pay, &st, &o.ShippingAddress, &o.Note, &o.CreatedAt, &o.UpdatedAt)
	o.PaymentStatus, o.OrderStatus = PaymentStatus(pay), Status(st)
	return o, err
}

// Insert writes the order row and its lines; callers run it inside the
// checkout transaction.
func (r *Repo) Insert(ctx context.Context, o *Order) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		o.ID, o.UserID, o.TotalAmount, o.ShippingFee, o.GrandTotal, o.PaymentMethod, o.BankUsed,
		string(o.PaymentStatus), string(o.OrderStatus), o.ShippingAddress, o.Note, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	for i, l := range o.Lines {
		if _, err := r.DB.Exec(ctx, `
			INSERT INTO order_lines(order_id, position, product_id, name, unit_price, quantity, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, i, l.ProductID, l.Name, l.UnitPrice, l.Quantity, l.Subtotal); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

// GetForUpdate locks the order row until the surrounding tx ends.
func (r *Repo) GetForUpdate(ctx context.Context, id string) (Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id)
}

func (r *Repo) get(ctx context.Context, query, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, notFound(id)
	}
	if err != nil {
		return Order{}, err
	}
	lines, err := r.lines(ctx, []string{id})
	if err != nil {
		return Order{}, err
	}
	o.Lines = lines[id]
	return o, nil
}

// List returns orders newest first.
func (r *Repo) List(ctx context.Context, f Filter) ([]Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if f.UserID != "" {
		rows, err = r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, f.UserID)
	} else {
		rows, err = r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	for i, o := range out {
		ids[i] = o.ID
	}
	lines, err := r.lines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

func (r *Repo) lines(ctx context.Context, orderIDs []string) (map[string][]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, name, unit_price, quantity, subtotal
		FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id, position`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Line, len(orderIDs))
	for rows.Next() {
		var id string
		var l Line
		if err := rows.Scan(&id, &l.ProductID, &l.Name, &l.UnitPrice, &l.Quantity, &l.Subtotal); err != nil {
			return nil, err
		}
		out[id] = append(out[id], l)
	}
	return out, rows.Err()
}

// UpdateStatus persists the mutable status axes only.
func (r *Repo) UpdateStatus(ctx context.Context, o Order) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET payment_status=$2, order_status=$3, updated_at=$4 WHERE id=$1`,
		o.ID, string(o.PaymentStatus), string(o.OrderStatus), o.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return notFound(o.ID)
	}
	return nil
}
