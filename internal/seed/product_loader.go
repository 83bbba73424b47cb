package seed

import (
	"context"
	"errors"
	"log"

	"inventory/m/domain"
	"inventory/m/internal/imports"
	"inventory/m/internal/store"
)

// LoadProducts ingests a product catalog file into the products table,
// skipping invalid rows and SKUs that are already stored. Rows are inserted
// one at a time so a rejected row never discards the others.
func LoadProducts(ctx context.Context, s *store.Store, path string) {
	sheet, err := imports.ReadSheet(path)
	if err != nil {
		log.Printf("unable to load product catalog %s: %v", path, err)
		return
	}
	if err := sheet.ValidateColumns(); err != nil {
		log.Printf("unable to load product catalog %s: %v", path, err)
		return
	}

	q := s.Q()
	rows, skipped := 0, 0
	for i, rec := range sheet.Rows {
		p, err := sheet.ParseRow(rec, i+1)
		if err != nil {
			log.Printf("skipping catalog row: %v", err)
			skipped++
			continue
		}
		if p.SKU != nil {
			exists, err := q.SKUExists(ctx, *p.SKU, 0)
			if err != nil {
				log.Printf("unable to seed product catalog: %v", err)
				return
			}
			if exists {
				skipped++
				continue
			}
		}
		_, err = q.CreateProduct(ctx, p)
		switch {
		case err == nil:
			rows++
		case errors.Is(err, domain.ErrDuplicateKey):
			skipped++
		case domain.IsClientError(err):
			log.Printf("skipping catalog row %d: %v", i+1, err)
			skipped++
		default:
			log.Printf("unable to insert product %s: %v", p.Name, err)
			skipped++
		}
	}
	log.Printf("seeded product catalog with %d rows (%d skipped)", rows, skipped)
}
