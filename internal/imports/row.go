package imports

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"inventory/m/domain"
)

// ParseRow coerces one data row into a normalized product. n is the 1-based
// data row number used in error messages.
func (s *Sheet) ParseRow(rec []string, n int) (domain.NewProduct, error) {
	var p domain.NewProduct
	rowErr := func(format string, args ...any) error {
		return domain.Invalidf("Fila %d: %s", n, fmt.Sprintf(format, args...))
	}

	p.Name = s.cell(rec, "name")
	if p.Name == "" {
		return p, rowErr("el nombre es obligatorio")
	}
	if sku := s.cell(rec, "sku"); sku != "" {
		p.SKU = &sku
	}
	if desc := s.cell(rec, "description"); desc != "" {
		p.Description = &desc
	}

	raw := s.cell(rec, "price")
	if raw == "" {
		return p, rowErr("el precio es obligatorio")
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return p, rowErr("precio inválido '%s'", raw)
	}
	p.Price = price

	if p.Stock, err = wholeNumber(s.cell(rec, "stock"), 0); err != nil {
		return p, rowErr("stock inválido '%s'", s.cell(rec, "stock"))
	}
	minStock, err := wholeNumber(s.cell(rec, "min_stock"), domain.DefaultMinStock)
	if err != nil {
		return p, rowErr("stock mínimo inválido '%s'", s.cell(rec, "min_stock"))
	}
	p.MinStock = &minStock

	if raw := s.cell(rec, "category_id"); raw != "" {
		id, err := wholeNumber(raw, 0)
		if err != nil || id <= 0 {
			return p, rowErr("category_id inválido '%s'", raw)
		}
		p.CategoryID = &id
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return p, rowErr("%s", err.Error())
	}
	return p, nil
}

// wholeNumber parses an integer cell. Spreadsheets often store integers as
// "10.0", so integral decimals are accepted too.
func wholeNumber(raw string, fallback int64) (int64, error) {
	if raw == "" {
		return fallback, nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return d.IntPart(), nil
}
