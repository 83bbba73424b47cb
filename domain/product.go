package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultMinStock = 5

type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description"`
	SKU         *string         `db:"sku" json:"sku"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int64           `db:"stock" json:"stock"`
	MinStock    int64           `db:"min_stock" json:"min_stock"`
	CategoryID  *int64          `db:"category_id" json:"category_id"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// LowStock reports whether the product is at or below its alert threshold.
func (p Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

// NewProduct is the validated input for inserting a product.
type NewProduct struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	SKU         *string         `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	MinStock    *int64          `json:"min_stock"`
	CategoryID  *int64          `json:"category_id"`
	IsActive    *bool           `json:"is_active"`
}

// Normalize trims text fields, drops empty optionals and fills defaults.
func (p *NewProduct) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = trimOptional(p.SKU)
	p.Description = trimOptional(p.Description)
	if p.MinStock == nil {
		v := int64(DefaultMinStock)
		p.MinStock = &v
	}
	if p.IsActive == nil {
		v := true
		p.IsActive = &v
	}
}

func (p NewProduct) Validate() error {
	if p.Name == "" {
		return Invalidf("el nombre es obligatorio")
	}
	if len(p.Name) > 200 {
		return Invalidf("el nombre no puede superar 200 caracteres")
	}
	if p.SKU != nil && len(*p.SKU) > 50 {
		return Invalidf("el SKU no puede superar 50 caracteres")
	}
	if !p.Price.IsPositive() {
		return Invalidf("el precio debe ser mayor a 0")
	}
	if !twoDecimals(p.Price) {
		return Invalidf("el precio admite como máximo 2 decimales")
	}
	if p.Stock < 0 {
		return Invalidf("el stock no puede ser negativo")
	}
	if p.MinStock != nil && *p.MinStock < 0 {
		return Invalidf("el stock mínimo no puede ser negativo")
	}
	return nil
}

// ProductPatch holds the fields of a partial update; nil means unchanged.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	SKU         *string          `json:"sku"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int64           `json:"stock"`
	MinStock    *int64           `json:"min_stock"`
	CategoryID  *int64           `json:"category_id"`
	IsActive    *bool            `json:"is_active"`
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.SKU == nil && p.Price == nil &&
		p.Stock == nil && p.MinStock == nil && p.CategoryID == nil && p.IsActive == nil
}

func (p ProductPatch) Validate() error {
	if p.Empty() {
		return Invalidf("no se proporcionaron campos para actualizar")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return Invalidf("el nombre no puede estar vacío")
	}
	if p.Price != nil && !p.Price.IsPositive() {
		return Invalidf("el precio debe ser mayor a 0")
	}
	if p.Price != nil && !twoDecimals(*p.Price) {
		return Invalidf("el precio admite como máximo 2 decimales")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return Invalidf("el stock no puede ser negativo")
	}
	if p.MinStock != nil && *p.MinStock < 0 {
		return Invalidf("el stock mínimo no puede ser negativo")
	}
	return nil
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID *int64
	IsActive   *bool
	Skip       int
	Limit      int
}

type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// twoDecimals reports whether d fits the DECIMAL(12,2) money columns exactly.
func twoDecimals(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
