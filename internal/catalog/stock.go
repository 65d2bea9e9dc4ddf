package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StockRepo struct{ DB *pgxpool.Pool }

type StockLine struct {
	ProductID string
	Qty       int
}

type StockShortage struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// DeductAll locks each product row (FOR UPDATE), deducts the sold quantity and
// records the deduction per order. A repeated call for the same order is a
// no-op thanks to the ON CONFLICT guard. Shortages never fail the order; they
// are reported so the caller can log them (inventory consistency is handled
// upstream, not here).
func (r *StockRepo) DeductAll(ctx context.Context, orderID string, lines []StockLine) ([]StockShortage, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var shortages []StockShortage

	for _, ln := range lines {
		ct, err := tx.Exec(ctx, `
			INSERT INTO stock_deductions(order_id, product_id, qty)
			VALUES ($1,$2,$3)
			ON CONFLICT (order_id, product_id) DO NOTHING
		`, orderID, ln.ProductID, ln.Qty)
		if err != nil {
			return nil, err
		}
		if ct.RowsAffected() == 0 {
			continue // already deducted for this order
		}

		var stock int
		if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, ln.ProductID).Scan(&stock); err != nil {
			return nil, err
		}

		deduct := ln.Qty
		if stock < ln.Qty {
			shortages = append(shortages, StockShortage{
				ProductID: ln.ProductID, Required: ln.Qty, Available: stock,
			})
			deduct = stock
		}
		if deduct == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id=$1`, ln.ProductID, deduct); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return shortages, nil
}
