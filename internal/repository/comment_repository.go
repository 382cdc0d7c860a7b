package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/pkg/models"
	"inkwell/pkg/utils"
)

// CommentRepository handles comment persistence. Comments are stored flat;
// ParentID only references another comment of the same post by id.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	// ListByPostID returns every visible comment of a post, oldest first,
	// joined with the author's display fields.
	ListByPostID(ctx context.Context, postID string) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (*models.Comment, error)
	SoftDelete(ctx context.Context, id string) error

	WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository creates a new PostgreSQL comment repository
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, c.parent_id, c.content, c.likes_count,
		COALESCE(NULLIF(u.display_name, ''), u.username), u.avatar_url,
		c.created_at, c.updated_at
	FROM comments c
	INNER JOIN users u ON u.id = c.author_id
`

func scanComment(row pgx.Row, c *models.Comment) error {
	return row.Scan(
		&c.ID,
		&c.PostID,
		&c.AuthorID,
		&c.ParentID,
		&c.Content,
		&c.LikesCount,
		&c.AuthorName,
		&c.AuthorImage,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// Create inserts the comment and bumps the post's comment counter in one transaction
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = utils.GenerateID()
	}

	return r.WithTransaction(ctx, func(tx pgx.Tx) error {
		insertQuery := `
			INSERT INTO comments (id, post_id, author_id, parent_id, content)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`
		err := tx.QueryRow(ctx, insertQuery,
			comment.ID,
			comment.PostID,
			comment.AuthorID,
			comment.ParentID,
			comment.Content,
		).Scan(&comment.CreatedAt)
		if err != nil {
			return mapDBError(err, "create_comment", models.ErrCommentNotFound)
		}

		_, err = tx.Exec(ctx, `UPDATE posts SET comments_count = comments_count + 1 WHERE id = $1`, comment.PostID)
		if err != nil {
			return mapDBError(err, "update_post_comment_count", models.ErrPostNotFound)
		}

		err = tx.QueryRow(ctx,
			`SELECT COALESCE(NULLIF(display_name, ''), username), avatar_url FROM users WHERE id = $1`,
			comment.AuthorID,
		).Scan(&comment.AuthorName, &comment.AuthorImage)
		if err != nil {
			return mapDBError(err, "get_comment_author", models.ErrUserNotFound)
		}
		return nil
	})
}

// GetByID retrieves a visible comment by ID
func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := commentSelect + ` WHERE c.id = $1 AND c.deleted_at IS NULL`
	comment := &models.Comment{}
	if err := scanComment(r.pool.QueryRow(ctx, query, id), comment); err != nil {
		return nil, mapDBError(err, "get_comment_by_id", models.ErrCommentNotFound)
	}
	return comment, nil
}

// ListByPostID loads the flat comment list of one post. Replies to a deleted
// comment are still returned; their parent is simply absent from the list.
func (r *commentRepository) ListByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	query := commentSelect + `
		WHERE c.post_id = $1 AND c.deleted_at IS NULL
		ORDER BY c.created_at ASC, c.id ASC
	`
	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, mapDBError(err, "list_comments", models.ErrPostNotFound)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := scanComment(rows, &c); err != nil {
			return nil, mapDBError(err, "scan_comment", models.ErrCommentNotFound)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, "list_comments", models.ErrPostNotFound)
	}
	return comments, nil
}

// UpdateContent replaces the text of a visible comment
func (r *commentRepository) UpdateContent(ctx context.Context, id, content string) (*models.Comment, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE comments SET content = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND deleted_at IS NULL
	`, id, content)
	if err != nil {
		return nil, mapDBError(err, "update_comment", models.ErrCommentNotFound)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("update_comment: %w", models.ErrCommentNotFound)
	}
	return r.GetByID(ctx, id)
}

// SoftDelete hides a comment and decrements the post's counter
func (r *commentRepository) SoftDelete(ctx context.Context, id string) error {
	return r.WithTransaction(ctx, func(tx pgx.Tx) error {
		var postID string
		err := tx.QueryRow(ctx, `
			UPDATE comments SET deleted_at = CURRENT_TIMESTAMP
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING post_id
		`, id).Scan(&postID)
		if err != nil {
			return mapDBError(err, "delete_comment", models.ErrCommentNotFound)
		}

		_, err = tx.Exec(ctx, `
			UPDATE posts SET comments_count = GREATEST(comments_count - 1, 0)
			WHERE id = $1
		`, postID)
		if err != nil {
			return mapDBError(err, "update_post_comment_count", models.ErrPostNotFound)
		}
		return nil
	})
}

// WithTransaction executes a function within a database transaction
func (r *commentRepository) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return withTransaction(ctx, r.pool, fn)
}
