package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	SalePending   SaleStatus = "pending"
)

func (s SaleStatus) Valid() bool {
	switch s {
	case SaleCompleted, SaleCancelled, SalePending:
		return true
	}
	return false
}

type Sale struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	SaleDate    time.Time       `db:"sale_date" json:"sale_date"`
	Status      SaleStatus      `db:"status" json:"status"`
	Notes       *string         `db:"notes" json:"notes"`
}

type SaleItem struct {
	ID        int64           `db:"id" json:"id"`
	SaleID    int64           `db:"sale_id" json:"sale_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
}

// SaleItemDetail is a SaleItem joined with the product it references.
type SaleItemDetail struct {
	SaleItem
	ProductName string  `db:"product_name" json:"product_name"`
	ProductSKU  *string `db:"product_sku" json:"product_sku"`
}

// SaleLine is one requested line of a new sale.
type SaleLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l SaleLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

type NewSale struct {
	UserID int64
	Items  []SaleLine
	Notes  *string
}

func (s NewSale) Validate() error {
	if len(s.Items) == 0 {
		return Invalidf("la venta debe tener al menos un item")
	}
	for i, item := range s.Items {
		if item.ProductID <= 0 {
			return Invalidf("item %d: product_id es obligatorio", i+1)
		}
		if item.Quantity <= 0 {
			return Invalidf("item %d: la cantidad debe ser mayor a 0", i+1)
		}
		if !item.UnitPrice.IsPositive() {
			return Invalidf("item %d: el precio unitario debe ser mayor a 0", i+1)
		}
		if !twoDecimals(item.UnitPrice) {
			return Invalidf("item %d: el precio unitario admite como máximo 2 decimales", i+1)
		}
	}
	return nil
}

// SaleFilter narrows sale listings.
type SaleFilter struct {
	Status *SaleStatus
	Skip   int
	Limit  int
}

type SalesSummary struct {
	TotalSales    int64               `db:"total_sales" json:"total_sales"`
	TotalAmount   decimal.NullDecimal `db:"total_amount" json:"total_amount"`
	AvgSaleAmount decimal.NullDecimal `db:"avg_sale_amount" json:"avg_sale_amount"`
	MaxSale       decimal.NullDecimal `db:"max_sale" json:"max_sale"`
	MinSale       decimal.NullDecimal `db:"min_sale" json:"min_sale"`
}

type TopProduct struct {
	ProductID     int64  `db:"product_id" json:"product_id"`
	Name          string `db:"name" json:"name"`
	TotalQuantity int64  `db:"total_quantity" json:"total_quantity"`
}
