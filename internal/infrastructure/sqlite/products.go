package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flyerkit/backend/internal/domain"
	sqlite3 "github.com/mattn/go-sqlite3"
)

const productColumns = `id, name, image_path, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a product and sets its id and timestamps
func (s *Store) CreateProduct(ctx context.Context, product *domain.Product) error {
	return insertProduct(ctx, s.db, product)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertProduct(ctx context.Context, db execer, product *domain.Product) error {
	ts := now()
	res, err := db.ExecContext(ctx,
		`INSERT INTO products (name, image_path, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		product.Name, product.ImagePath, ts, ts)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateProduct, product.Name)
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read product id: %w", err)
	}
	product.ID = id
	product.CreatedAt = ts
	product.UpdatedAt = ts
	return nil
}

// GetProduct returns the product with the given id
func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// ListProducts returns all products ordered by name
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// UpdateProduct overwrites name and image path
func (s *Store) UpdateProduct(ctx context.Context, product *domain.Product) error {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = ?, image_path = ?, updated_at = ? WHERE id = ?`,
		product.Name, product.ImagePath, ts, product.ID)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateProduct, product.Name)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	product.UpdatedAt = ts
	return nil
}

// DeleteProduct removes a product that no campaign references
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return fmt.Errorf("%w: product is used by a campaign", domain.ErrInvalidRequest)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// FirstOrCreateProduct looks a product up by exact name, creating it when missing.
// A non-empty imagePath replaces the stored image of an existing product.
func (s *Store) FirstOrCreateProduct(ctx context.Context, name, imagePath string) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := firstOrCreateProduct(ctx, tx, name, imagePath)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product: %w", err)
	}
	return product, nil
}

func firstOrCreateProduct(ctx context.Context, db execer, name, imagePath string) (*domain.Product, error) {
	product, err := scanProduct(db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE name = ?`, name))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		product = &domain.Product{Name: name, ImagePath: imagePath}
		if err := insertProduct(ctx, db, product); err != nil {
			return nil, err
		}
		return product, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}

	if imagePath != "" && imagePath != product.ImagePath {
		ts := now()
		if _, err := db.ExecContext(ctx, `UPDATE products SET image_path = ?, updated_at = ? WHERE id = ?`, imagePath, ts, product.ID); err != nil {
			return nil, fmt.Errorf("failed to update product image: %w", err)
		}
		product.ImagePath = imagePath
		product.UpdatedAt = ts
	}
	return product, nil
}
