// Package ledger applies sales to product stock. Every operation runs in one
// transaction, so a sale is either fully recorded with all its stock
// decrements or leaves no trace at all.
package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"inventory/m/domain"
	"inventory/m/internal/cache"
	"inventory/m/internal/store"
)

type Ledger struct {
	store *store.Store
	cache *cache.ProductCache
}

// New returns a ledger. products may be nil.
func New(s *store.Store, products *cache.ProductCache) *Ledger {
	return &Ledger{store: s, cache: products}
}

// CancelResult describes a successful cancellation.
type CancelResult struct {
	Message          string      `json:"message"`
	Detail           string      `json:"detail"`
	RestoredProducts int         `json:"restored_products"`
	Sale             domain.Sale `json:"sale"`
}

// CreateSale checks every line against current stock, records the sale with
// its items and decrements stock. Lines are processed in request order and
// the first failing line aborts the whole sale.
func (l *Ledger) CreateSale(ctx context.Context, in domain.NewSale) (domain.Sale, error) {
	if err := in.Validate(); err != nil {
		return domain.Sale{}, err
	}

	var (
		saleID  int64
		touched []int64
	)
	err := l.store.InTx(ctx, func(q *store.Queries) error {
		total := decimal.Zero
		for _, line := range in.Items {
			product, err := q.LockProduct(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return domain.InvalidStatef("El producto '%s' no está disponible para venta", product.Name)
			}
			if product.Stock < line.Quantity {
				return &domain.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.Stock,
					Requested:   line.Quantity,
				}
			}
			total = total.Add(line.Subtotal())
		}

		id, err := q.InsertSale(ctx, in.UserID, total, domain.SaleCompleted, in.Notes, time.Now().UTC())
		if err != nil {
			return err
		}
		for _, line := range in.Items {
			_, err := q.InsertSaleItem(ctx, domain.SaleItem{
				SaleID:    id,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				Subtotal:  line.Subtotal(),
			})
			if err != nil {
				return err
			}
		}
		for _, line := range in.Items {
			ok, err := q.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return insufficientAfterDecrement(ctx, q, line)
			}
			touched = append(touched, line.ProductID)
		}
		saleID = id
		return nil
	})
	if err != nil {
		return domain.Sale{}, err
	}
	l.cache.Invalidate(ctx, touched...)

	sale, err := l.store.Q().GetSale(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	log.Printf("sale %d created by user %d: %d items, total %s", sale.ID, sale.UserID, len(in.Items), sale.TotalAmount.StringFixed(2))
	return sale, nil
}

// insufficientAfterDecrement builds the error for a line whose guarded
// decrement was rejected, reporting the stock left by earlier lines.
func insufficientAfterDecrement(ctx context.Context, q *store.Queries, line domain.SaleLine) error {
	product, err := q.GetProduct(ctx, line.ProductID)
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Available:   product.Stock,
		Requested:   line.Quantity,
	}
}

// CancelSale marks a completed sale as cancelled and returns every sold
// quantity to stock. Totals and items are left untouched.
func (l *Ledger) CancelSale(ctx context.Context, id int64) (CancelResult, error) {
	var items []domain.SaleItem
	err := l.store.InTx(ctx, func(q *store.Queries) error {
		sale, err := q.LockSale(ctx, id)
		if err != nil {
			return err
		}
		if sale.Status == domain.SaleCancelled {
			return domain.InvalidStatef("La venta ya está cancelada")
		}
		items, err = q.ListSaleItems(ctx, id)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := q.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return q.SetSaleStatus(ctx, id, domain.SaleCancelled)
	})
	if err != nil {
		return CancelResult{}, err
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	l.cache.Invalidate(ctx, ids...)

	sale, err := l.store.Q().GetSale(ctx, id)
	if err != nil {
		return CancelResult{}, err
	}
	log.Printf("sale %d cancelled: stock restored for %d items", id, len(items))
	return CancelResult{
		Message:          "Venta cancelada exitosamente",
		Detail:           fmt.Sprintf("Venta #%d cancelada. Stock restaurado para %d productos.", id, len(items)),
		RestoredProducts: len(items),
		Sale:             sale,
	}, nil
}
