package models

import (
	"time"
)

// Comment is one comment row of a post, joined with its author's display fields.
// ParentID is nil for top-level comments.
type Comment struct {
	ID          string     `json:"id" yaml:"id" db:"id"`
	PostID      string     `json:"post_id" yaml:"post_id" db:"post_id"`
	AuthorID    string     `json:"author_id" yaml:"author_id" db:"author_id"`
	ParentID    *string    `json:"parent_id,omitempty" yaml:"parent_id,omitempty" db:"parent_id"`
	Content     string     `json:"content" yaml:"content" db:"content"`
	LikesCount  int        `json:"likes_count" yaml:"likes_count" db:"likes_count"`
	AuthorName  string     `json:"author_name" yaml:"author_name"`
	AuthorImage string     `json:"author_image,omitempty" yaml:"author_image,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty" db:"updated_at"`
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// CreateCommentRequest is the body of POST /posts/:slug/comments
type CreateCommentRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
	Content  string  `json:"content" binding:"required"`
}

// UpdateCommentRequest is the body of PUT /comments/:id
type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// CommentEventType names a change to a post's comment collection
type CommentEventType string

const (
	CommentCreated CommentEventType = "created"
	CommentUpdated CommentEventType = "updated"
	CommentDeleted CommentEventType = "deleted"
	CommentLiked   CommentEventType = "liked"
)

// CommentEvent is published whenever the flat comment list of a post changes.
// Subscribers rebuild the thread from the store; the event only says which post.
type CommentEvent struct {
	Type      CommentEventType `json:"type"`
	PostID    string           `json:"post_id"`
	CommentID string           `json:"comment_id"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

const MaxCommentLength = 5000
