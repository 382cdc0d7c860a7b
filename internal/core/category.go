package core

import (
	"context"
	"fmt"
	"strings"

	"inkwell/internal/repository"
	"inkwell/pkg/models"
	"inkwell/pkg/utils"
)

// CategoryService manages post categories. Writes are admin-only at the HTTP layer.
type CategoryService interface {
	Create(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) Create(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateTitle(req.Name); err != nil {
		return nil, err
	}
	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        utils.Slugify(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	category, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("get category %s: %w", slug, err)
	}
	if err := s.repo.Delete(ctx, category.ID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
