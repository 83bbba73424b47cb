package store

import (
	"context"
	"fmt"
	"time"

	"inventory/m/domain"
	"inventory/m/internal/database"
)

func (q *Queries) CreateCategory(ctx context.Context, name, slug string, description *string) (domain.Category, error) {
	now := time.Now().UTC()
	id, err := q.db.InsertID(ctx, q.ext, `INSERT INTO categories (name, slug, description, created_at) VALUES (?, ?, ?, ?)`,
		name, slug, description, now)
	if database.IsUniqueViolation(err) {
		return domain.Category{}, domain.Duplicatef("Ya existe una categoría llamada '%s'", name)
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return domain.Category{ID: id, Name: name, Slug: slug, Description: description, CreatedAt: now}, nil
}

func (q *Queries) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	err := q.selectAll(ctx, &categories, `SELECT id, name, slug, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
