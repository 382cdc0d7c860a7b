package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inkwell/pkg/models"
)

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	repo := &mockCategoryRepo{}
	repo.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.Name == "Go Tips" && c.Slug == "go-tips"
	})).Return(nil)
	repo.On("GetBySlug", mock.Anything, "go-tips").Return(&models.Category{ID: "cat1", Slug: "go-tips"}, nil)
	repo.On("GetBySlug", mock.Anything, "nope").Return(nil, models.ErrCategoryNotFound)
	repo.On("Delete", mock.Anything, "cat1").Return(nil)

	svc := NewCategoryService(repo)

	c, err := svc.Create(ctx, models.CreateCategoryRequest{Name: " Go Tips "})
	require.NoError(t, err)
	assert.Equal(t, "go-tips", c.Slug)

	_, err = svc.Create(ctx, models.CreateCategoryRequest{Name: "x"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	require.NoError(t, svc.Delete(ctx, "go-tips"))
	assert.ErrorIs(t, svc.Delete(ctx, "nope"), models.ErrCategoryNotFound)
	repo.AssertExpectations(t)
}
