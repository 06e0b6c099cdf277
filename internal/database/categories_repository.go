package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/csinsight/ticket-classifier/internal/domain"
)

// CategoriesRepository handles the seeded category reference data.
type CategoriesRepository struct {
	db *sqlx.DB
}

// NewCategoriesRepository creates a categories repository.
func NewCategoriesRepository(db *sqlx.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

// List returns all categories in id order.
func (r *CategoriesRepository) List(ctx context.Context) ([]domain.Category, error) {
	categories := make([]domain.Category, 0)
	query := "SELECT id, name FROM categories ORDER BY id"
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Mapping returns the {id -> name} mapping the classifier consumes.
func (r *CategoriesRepository) Mapping(ctx context.Context) (domain.CategoryMapping, error) {
	categories, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	mapping := make(domain.CategoryMapping, len(categories))
	for _, c := range categories {
		mapping[c.ID] = c.Name
	}
	return mapping, nil
}

// Seed inserts any missing canonical categories. Existing rows are left
// untouched; done row by row in a transaction so it stays driver-portable.
func (r *CategoriesRepository) Seed(ctx context.Context) error {
	existing, err := r.Mapping(ctx)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := r.db.Rebind("INSERT INTO categories (id, name) VALUES (?, ?)")
	for _, c := range domain.DefaultCategories() {
		if _, ok := existing[c.ID]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, insert, c.ID, c.Name); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}
