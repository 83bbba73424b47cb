package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"inventory/m/domain"
)

const saleColumns = `id, user_id, total_amount, sale_date, status, notes`

func (q *Queries) InsertSale(ctx context.Context, userID int64, total decimal.Decimal, status domain.SaleStatus, notes *string, at time.Time) (int64, error) {
	id, err := q.db.InsertID(ctx, q.ext, `INSERT INTO sales (user_id, total_amount, sale_date, status, notes) VALUES (?, ?, ?, ?, ?)`,
		userID, total, at, string(status), notes)
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}
	return id, nil
}

func (q *Queries) InsertSaleItem(ctx context.Context, item domain.SaleItem) (int64, error) {
	id, err := q.db.InsertID(ctx, q.ext, `INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, subtotal) VALUES (?, ?, ?, ?, ?)`,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal)
	if err != nil {
		return 0, fmt.Errorf("insert item of sale %d: %w", item.SaleID, err)
	}
	return id, nil
}

func (q *Queries) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	return q.getSale(ctx, id, "")
}

// LockSale reads a sale holding a row lock where supported.
func (q *Queries) LockSale(ctx context.Context, id int64) (domain.Sale, error) {
	return q.getSale(ctx, id, q.db.ForUpdate())
}

func (q *Queries) getSale(ctx context.Context, id int64, suffix string) (domain.Sale, error) {
	var s domain.Sale
	err := q.get(ctx, &s, `SELECT `+saleColumns+` FROM sales WHERE id = ?`+suffix, id)
	if isNoRows(err) {
		return s, domain.NotFoundf("Venta con ID %d no encontrada", id)
	}
	if err != nil {
		return s, fmt.Errorf("get sale %d: %w", id, err)
	}
	return s, nil
}

func (q *Queries) ListSales(ctx context.Context, f domain.SaleFilter) ([]domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales`
	var args []any
	if f.Status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*f.Status))
	}
	skip, limit := page(f.Skip, f.Limit)
	query += " ORDER BY sale_date DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, skip)

	sales := []domain.Sale{}
	if err := q.selectAll(ctx, &sales, query, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

func (q *Queries) ListSaleItems(ctx context.Context, saleID int64) ([]domain.SaleItem, error) {
	items := []domain.SaleItem{}
	err := q.selectAll(ctx, &items, `SELECT id, sale_id, product_id, quantity, unit_price, subtotal
                FROM sale_items WHERE sale_id = ? ORDER BY id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list items of sale %d: %w", saleID, err)
	}
	return items, nil
}

// SaleItemDetails lists the items of a sale joined with product name and sku.
func (q *Queries) SaleItemDetails(ctx context.Context, saleID int64) ([]domain.SaleItemDetail, error) {
	items := []domain.SaleItemDetail{}
	err := q.selectAll(ctx, &items, `SELECT si.id, si.sale_id, si.product_id, si.quantity, si.unit_price, si.subtotal,
                       p.name AS product_name, p.sku AS product_sku
                FROM sale_items si
                JOIN products p ON p.id = si.product_id
                WHERE si.sale_id = ?
                ORDER BY si.id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list item details of sale %d: %w", saleID, err)
	}
	return items, nil
}

func (q *Queries) SetSaleStatus(ctx context.Context, id int64, status domain.SaleStatus) error {
	n, err := q.exec(ctx, `UPDATE sales SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set status of sale %d: %w", id, err)
	}
	if n == 0 {
		return domain.NotFoundf("Venta con ID %d no encontrada", id)
	}
	return nil
}

func (q *Queries) SalesSummary(ctx context.Context) (domain.SalesSummary, error) {
	var s domain.SalesSummary
	err := q.get(ctx, &s, `SELECT COUNT(*) AS total_sales,
                       SUM(total_amount) AS total_amount,
                       AVG(total_amount) AS avg_sale_amount,
                       MAX(total_amount) AS max_sale,
                       MIN(total_amount) AS min_sale
                FROM sales WHERE status = ?`, string(domain.SaleCompleted))
	if err != nil {
		return s, fmt.Errorf("sales summary: %w", err)
	}
	return s, nil
}

func (q *Queries) TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error) {
	top := []domain.TopProduct{}
	err := q.selectAll(ctx, &top, `SELECT p.id AS product_id, p.name AS name, SUM(si.quantity) AS total_quantity
                FROM sale_items si
                JOIN products p ON p.id = si.product_id
                JOIN sales s ON s.id = si.sale_id
                WHERE s.status = ?
                GROUP BY p.id, p.name
                ORDER BY total_quantity DESC, p.id ASC
                LIMIT ?`, string(domain.SaleCompleted), limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return top, nil
}
