package core

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/events"
	"inkwell/internal/repository"
	"inkwell/pkg/logger"
	"inkwell/pkg/models"
)

// LikeService toggles likes on posts and comments
type LikeService interface {
	TogglePostLike(ctx context.Context, userID, slug string) (*models.LikeResult, error)
	ToggleCommentLike(ctx context.Context, userID, commentID string) (*models.LikeResult, error)
}

type likeService struct {
	likeRepo    repository.LikeRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	cache       cache.Cache
	bus         events.Bus
	now         func() time.Time
}

// NewLikeService creates a new like service
func NewLikeService(
	likeRepo repository.LikeRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	c cache.Cache,
	bus events.Bus,
) LikeService {
	if c == nil {
		c = cache.Noop{}
	}
	return &likeService{
		likeRepo:    likeRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		cache:       c,
		bus:         bus,
		now:         time.Now,
	}
}

func (s *likeService) TogglePostLike(ctx context.Context, userID, slug string) (*models.LikeResult, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", slug, err)
	}
	if !post.IsPublished() {
		return nil, fmt.Errorf("like post %s: %w", slug, models.ErrPostNotFound)
	}

	liked, count, err := s.likeRepo.Toggle(ctx, userID, models.LikeTargetPost, post.ID)
	if err != nil {
		return nil, fmt.Errorf("toggle post like: %w", err)
	}
	if err := s.cache.Delete(ctx, cache.PostKey(slug)); err != nil {
		logger.WithError(err).Warn("post cache invalidation failed")
	}

	return &models.LikeResult{
		TargetType: models.LikeTargetPost,
		TargetID:   post.ID,
		Liked:      liked,
		LikesCount: count,
	}, nil
}

// ToggleCommentLike changes a comment's like count, which is part of the
// rendered thread, so subscribers are told about it.
func (s *likeService) ToggleCommentLike(ctx context.Context, userID, commentID string) (*models.LikeResult, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", commentID, err)
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", comment.PostID, err)
	}
	if !post.IsPublished() {
		return nil, fmt.Errorf("like comment %s: %w", commentID, models.ErrCommentNotFound)
	}

	liked, count, err := s.likeRepo.Toggle(ctx, userID, models.LikeTargetComment, comment.ID)
	if err != nil {
		return nil, fmt.Errorf("toggle comment like: %w", err)
	}
	if err := s.cache.Delete(ctx, cache.CommentsKey(comment.PostID)); err != nil {
		logger.WithError(err).Warn("comment cache invalidation failed")
	}

	publish(ctx, s.bus, models.CommentEvent{
		Type:      models.CommentLiked,
		PostID:    comment.PostID,
		CommentID: comment.ID,
		UserID:    userID,
		Timestamp: s.now().UTC(),
	})

	return &models.LikeResult{
		TargetType: models.LikeTargetComment,
		TargetID:   comment.ID,
		Liked:      liked,
		LikesCount: count,
	}, nil
}
