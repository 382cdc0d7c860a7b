package models

import (
	"time"
)

// PostStatus represents valid post status values
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// Post represents a blog post
type Post struct {
	ID            string     `json:"id" yaml:"id" db:"id"`
	AuthorID      string     `json:"author_id" yaml:"author_id" db:"author_id"`
	CategoryID    *string    `json:"category_id,omitempty" yaml:"category_id,omitempty" db:"category_id"`
	Title         string     `json:"title" yaml:"title" db:"title"`
	Slug          string     `json:"slug" yaml:"slug" db:"slug"`
	Excerpt       string     `json:"excerpt" yaml:"excerpt" db:"excerpt"`
	Content       string     `json:"content,omitempty" yaml:"content,omitempty" db:"content"`
	Status        PostStatus `json:"status" yaml:"status" db:"status"`
	LikesCount    int        `json:"likes_count" yaml:"likes_count" db:"likes_count"`
	CommentsCount int        `json:"comments_count" yaml:"comments_count" db:"comments_count"`
	PublishedAt   *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty" db:"published_at"`
	CreatedAt     time.Time  `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

// IsPublished reports whether readers can see and comment on the post
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// PostWithAuthor adds the author's and category's display fields for API responses
type PostWithAuthor struct {
	Post `yaml:",inline"`
	AuthorName   string `json:"author_name" yaml:"author_name"`
	AuthorAvatar string `json:"author_avatar,omitempty" yaml:"author_avatar,omitempty"`
	CategoryName string `json:"category_name,omitempty" yaml:"category_name,omitempty"`
	CategorySlug string `json:"category_slug,omitempty" yaml:"category_slug,omitempty"`
}

// PostSearchResult adds search relevance scoring
type PostSearchResult struct {
	PostWithAuthor `yaml:",inline"`
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// PostSearchRequest represents list and search parameters
type PostSearchRequest struct {
	Query        string `json:"query" form:"q"`
	CategorySlug string `json:"category" form:"category"`
	AuthorID     string `json:"author" form:"author"`
	Status       string `json:"status" form:"status"`
	Limit        int    `json:"limit" form:"limit"`
	Offset       int    `json:"offset" form:"offset"`
}

// CreatePostRequest represents a request to create a new post
type CreatePostRequest struct {
	Title      string  `json:"title" binding:"required"`
	Excerpt    string  `json:"excerpt"`
	Content    string  `json:"content" binding:"required"`
	CategoryID *string `json:"category_id"`
	Publish    bool    `json:"publish"`
}

// UpdatePostRequest represents a partial post update
type UpdatePostRequest struct {
	Title      *string `json:"title"`
	Excerpt    *string `json:"excerpt"`
	Content    *string `json:"content"`
	CategoryID *string `json:"category_id"`
	Status     *string `json:"status"`
}

// ValidatePostSearch normalizes paging parameters
func ValidatePostSearch(req *PostSearchRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Status != "" && !IsValidPostStatus(req.Status) {
		return ErrInvalidInput
	}
	return nil
}

// IsValidPostStatus validates status against schema constraints
func IsValidPostStatus(status string) bool {
	switch PostStatus(status) {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	default:
		return false
	}
}
