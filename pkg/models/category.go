package models

// Category groups posts
type Category struct {
	ID          string `json:"id" yaml:"id" db:"id"`
	Name        string `json:"name" yaml:"name" db:"name"`
	Slug        string `json:"slug" yaml:"slug" db:"slug"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" db:"description"`
	PostCount   int    `json:"post_count" yaml:"post_count" db:"post_count"`
}

// CreateCategoryRequest
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}
