package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory/m/domain"
	"inventory/m/internal/database"
)

const productColumns = `id, name, description, sku, price, stock, min_stock, category_id, is_active, created_at, updated_at`

func (q *Queries) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return q.getProduct(ctx, id, "")
}

// LockProduct reads a product and, on engines that support it, holds a row
// lock until the surrounding transaction ends.
func (q *Queries) LockProduct(ctx context.Context, id int64) (domain.Product, error) {
	return q.getProduct(ctx, id, q.db.ForUpdate())
}

func (q *Queries) getProduct(ctx context.Context, id int64, suffix string) (domain.Product, error) {
	var p domain.Product
	err := q.get(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`+suffix, id)
	if isNoRows(err) {
		return p, domain.NotFoundf("Producto con ID %d no encontrado", id)
	}
	if err != nil {
		return p, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (q *Queries) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	var (
		clauses []string
		args    []any
	)
	if f.CategoryID != nil {
		clauses = append(clauses, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.IsActive != nil {
		clauses = append(clauses, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	query := `SELECT ` + productColumns + ` FROM products`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	skip, limit := page(f.Skip, f.Limit)
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, skip)

	products := []domain.Product{}
	if err := q.selectAll(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (q *Queries) LowStockProducts(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}
	err := q.selectAll(ctx, &products, `SELECT `+productColumns+` FROM products
                WHERE stock <= min_stock AND is_active = ?
                ORDER BY stock ASC, id ASC`, true)
	if err != nil {
		return nil, fmt.Errorf("list low stock products: %w", err)
	}
	return products, nil
}

// SKUExists reports whether another product already uses sku. excludeID may
// be zero.
func (q *Queries) SKUExists(ctx context.Context, sku string, excludeID int64) (bool, error) {
	var n int
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM products WHERE sku = ? AND id <> ?`, sku, excludeID)
	if err != nil {
		return false, fmt.Errorf("check sku %q: %w", sku, err)
	}
	return n > 0, nil
}

// CreateProduct inserts a normalized and validated product. The unique index
// on sku is the authoritative duplicate guard.
func (q *Queries) CreateProduct(ctx context.Context, p domain.NewProduct) (domain.Product, error) {
	now := time.Now().UTC()
	id, err := q.db.InsertID(ctx, q.ext, `INSERT INTO products
                (name, description, sku, price, stock, min_stock, category_id, is_active, created_at, updated_at)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.SKU, p.Price, p.Stock, *p.MinStock, p.CategoryID, *p.IsActive, now, now)
	if err != nil {
		return domain.Product{}, productWriteError(err, p.SKU, p.CategoryID)
	}
	return q.GetProduct(ctx, id)
}

func (q *Queries) UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Name != nil {
		add("name", strings.TrimSpace(*patch.Name))
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.SKU != nil {
		if sku := strings.TrimSpace(*patch.SKU); sku != "" {
			add("sku", sku)
		} else {
			add("sku", nil)
		}
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Stock != nil {
		add("stock", *patch.Stock)
	}
	if patch.MinStock != nil {
		add("min_stock", *patch.MinStock)
	}
	if patch.CategoryID != nil {
		add("category_id", *patch.CategoryID)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	if len(sets) == 0 {
		return domain.Product{}, domain.Invalidf("no se proporcionaron campos para actualizar")
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	n, err := q.exec(ctx, `UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Product{}, productWriteError(err, patch.SKU, patch.CategoryID)
	}
	if n == 0 {
		return domain.Product{}, domain.NotFoundf("Producto con ID %d no encontrado", id)
	}
	return q.GetProduct(ctx, id)
}

// DeleteProduct removes a product and returns its name.
func (q *Queries) DeleteProduct(ctx context.Context, id int64) (string, error) {
	var name string
	err := q.get(ctx, &name, `SELECT name FROM products WHERE id = ?`, id)
	if isNoRows(err) {
		return "", domain.NotFoundf("Producto con ID %d no encontrado", id)
	}
	if err != nil {
		return "", fmt.Errorf("get product %d: %w", id, err)
	}
	if _, err := q.exec(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return "", domain.InvalidStatef("No se puede eliminar el producto porque tiene ventas asociadas")
		}
		return "", fmt.Errorf("delete product %d: %w", id, err)
	}
	return name, nil
}

// DecrementStock subtracts qty from the product stock only when enough stock
// is available. It reports false when the guard rejected the update.
func (q *Queries) DecrementStock(ctx context.Context, id, qty int64) (bool, error) {
	n, err := q.exec(ctx, `UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
		qty, time.Now().UTC(), id, qty)
	if err != nil {
		return false, fmt.Errorf("decrement stock of product %d: %w", id, err)
	}
	return n == 1, nil
}

func (q *Queries) IncrementStock(ctx context.Context, id, qty int64) error {
	_, err := q.exec(ctx, `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
		qty, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("increment stock of product %d: %w", id, err)
	}
	return nil
}

func productWriteError(err error, sku *string, categoryID *int64) error {
	switch {
	case database.IsUniqueViolation(err) && sku != nil:
		return domain.Duplicatef("Ya existe un producto con SKU '%s'", *sku)
	case database.IsUniqueViolation(err):
		return domain.Duplicatef("Ya existe un producto con esos datos")
	case database.IsForeignKeyViolation(err) && categoryID != nil:
		return domain.Invalidf("La categoría con ID %d no existe", *categoryID)
	}
	return fmt.Errorf("write product: %w", err)
}
