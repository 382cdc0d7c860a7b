package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/pkg/models"
	"inkwell/pkg/utils"
)

// CategoryRepository handles categories
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	List(ctx context.Context) ([]models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new PostgreSQL category repository
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categorySelect = `
	SELECT c.id, c.name, c.slug, c.description,
		(SELECT COUNT(*) FROM posts p WHERE p.category_id = c.id AND p.status = 'published')
	FROM categories c
`

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = utils.GenerateID()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO categories (id, name, slug, description) VALUES ($1, $2, $3, $4)`,
		category.ID, category.Name, category.Slug, category.Description,
	)
	if err != nil {
		return mapDBError(err, "create_category", models.ErrCategoryNotFound)
	}
	return nil
}

// List returns all categories by name with their published post counts
func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.pool.Query(ctx, categorySelect+` ORDER BY c.name`)
	if err != nil {
		return nil, mapDBError(err, "list_categories", models.ErrCategoryNotFound)
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.PostCount); err != nil {
			return nil, mapDBError(err, "scan_category", models.ErrCategoryNotFound)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c := &models.Category{}
	err := r.pool.QueryRow(ctx, categorySelect+` WHERE c.slug = $1`, slug).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.PostCount)
	if err != nil {
		return nil, mapDBError(err, "get_category_by_slug", models.ErrCategoryNotFound)
	}
	return c, nil
}

// Delete removes a category; its posts become uncategorized
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	var deletedID string
	if err := r.pool.QueryRow(ctx, `DELETE FROM categories WHERE id = $1 RETURNING id`, id).Scan(&deletedID); err != nil {
		return mapDBError(err, "delete_category", models.ErrCategoryNotFound)
	}
	return nil
}
