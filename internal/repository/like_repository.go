package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/pkg/models"
)

// LikeRepository stores likes and keeps the denormalized likes_count columns in step
type LikeRepository interface {
	// Toggle likes the target if the user has not yet, unlikes it otherwise.
	Toggle(ctx context.Context, userID string, target models.LikeTarget, targetID string) (liked bool, count int, err error)
	HasLiked(ctx context.Context, userID string, target models.LikeTarget, targetID string) (bool, error)
}

type likeRepository struct {
	pool *pgxpool.Pool
}

// NewLikeRepository creates a new PostgreSQL like repository
func NewLikeRepository(pool *pgxpool.Pool) LikeRepository {
	return &likeRepository{pool: pool}
}

func targetTable(target models.LikeTarget) (string, error) {
	switch target {
	case models.LikeTargetPost:
		return "posts", nil
	case models.LikeTargetComment:
		return "comments", nil
	default:
		return "", fmt.Errorf("%w: unknown like target %q", models.ErrInvalidInput, target)
	}
}

func targetNotFound(target models.LikeTarget) error {
	if target == models.LikeTargetComment {
		return models.ErrCommentNotFound
	}
	return models.ErrPostNotFound
}

func (r *likeRepository) Toggle(ctx context.Context, userID string, target models.LikeTarget, targetID string) (bool, int, error) {
	table, err := targetTable(target)
	if err != nil {
		return false, 0, err
	}
	notFound := targetNotFound(target)

	var liked bool
	var count int
	err = withTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		// lock the target row so concurrent toggles serialize on the counter
		lockQuery := fmt.Sprintf(`SELECT likes_count FROM %s WHERE id = $1 FOR UPDATE`, table)
		if table == "comments" {
			lockQuery = `SELECT likes_count FROM comments WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
		}
		if err := tx.QueryRow(ctx, lockQuery, targetID).Scan(&count); err != nil {
			return mapDBError(err, "lock_like_target", notFound)
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM likes WHERE user_id = $1 AND target_type = $2 AND target_id = $3`,
			userID, string(target), targetID,
		)
		if err != nil {
			return mapDBError(err, "remove_like", notFound)
		}

		delta := -1
		if tag.RowsAffected() == 0 {
			_, err = tx.Exec(ctx,
				`INSERT INTO likes (user_id, target_type, target_id) VALUES ($1, $2, $3)`,
				userID, string(target), targetID,
			)
			if err != nil {
				return mapDBError(err, "add_like", notFound)
			}
			delta = 1
			liked = true
		}

		updateQuery := fmt.Sprintf(`
			UPDATE %s SET likes_count = GREATEST(likes_count + $2, 0)
			WHERE id = $1
			RETURNING likes_count
		`, table)
		if err := tx.QueryRow(ctx, updateQuery, targetID, delta).Scan(&count); err != nil {
			return mapDBError(err, "update_likes_count", notFound)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (r *likeRepository) HasLiked(ctx context.Context, userID string, target models.LikeTarget, targetID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND target_type = $2 AND target_id = $3)`,
		userID, string(target), targetID,
	).Scan(&exists)
	if err != nil {
		return false, mapDBError(err, "has_liked", targetNotFound(target))
	}
	return exists, nil
}
