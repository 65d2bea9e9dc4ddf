package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var ErrProductNotFound = errors.New("product not found")

func (r *Repo) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, slug, description, price, compare_at_price, currency,
		       primary_image, category_id, store_id, rating, review_count,
		       stock, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.CompareAtPrice,
			&p.Currency, &p.PrimaryImage, &p.CategoryID, &p.StoreID, &p.Rating,
			&p.ReviewCount, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	p.InStock = p.Stock > 0
	return p, nil
}

func (r *Repo) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	q := `SELECT id, name, slug, description, price, compare_at_price, currency,
	             primary_image, category_id, store_id, rating, review_count,
	             stock, created_at, updated_at
	      FROM products WHERE 1=1`
	args := make([]any, 0, 6)
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		q += fmt.Sprintf(" AND category_id=$%d", len(args))
	}
	if f.StoreID != "" {
		args = append(args, f.StoreID)
		q += fmt.Sprintf(" AND store_id=$%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		q += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if !f.MinPrice.IsZero() {
		args = append(args, f.MinPrice)
		q += fmt.Sprintf(" AND price >= $%d", len(args))
	}
	if !f.MaxPrice.IsZero() {
		args = append(args, f.MaxPrice)
		q += fmt.Sprintf(" AND price <= $%d", len(args))
	}
	if f.InStock {
		q += " AND stock > 0"
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price,
			&p.CompareAtPrice, &p.Currency, &p.PrimaryImage, &p.CategoryID,
			&p.StoreID, &p.Rating, &p.ReviewCount, &p.Stock, &p.CreatedAt,
			&p.UpdatedAt); err != nil {
			return nil, err
		}
		p.InStock = p.Stock > 0
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.id, c.name, c.slug, c.description, COALESCE(c.image, ''),
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id)
		FROM categories c ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) ListStores(ctx context.Context) ([]Store, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT s.id, s.name, s.slug, COALESCE(s.description, ''), COALESCE(s.logo, ''),
		       s.city, s.country, s.rating, s.review_count, s.verified, s.created_at,
		       (SELECT COUNT(*) FROM products p WHERE p.store_id = s.id)
		FROM stores s ORDER BY s.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Store
	for rows.Next() {
		var s Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.Logo,
			&s.City, &s.Country, &s.Rating, &s.ReviewCount, &s.Verified,
			&s.CreatedAt, &s.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
