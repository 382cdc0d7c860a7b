package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/events"
	"inkwell/internal/repository"
	"inkwell/pkg/logger"
	"inkwell/pkg/models"
	"inkwell/pkg/thread"
	"inkwell/pkg/utils"
)

// CommentService defines comment operations. Threads are always rebuilt from
// the flat list; nothing but the flat list is cached.
type CommentService interface {
	Create(ctx context.Context, postID, userID string, req models.CreateCommentRequest) (*models.Comment, error)
	Get(ctx context.Context, id string) (*models.Comment, error)
	List(ctx context.Context, postID string) ([]models.Comment, error)
	Thread(ctx context.Context, postID string) (*thread.Snapshot, error)
	DisclosedThread(ctx context.Context, postID string, expansions map[string]int) (*thread.Snapshot, error)
	Update(ctx context.Context, id, userID, content string) (*models.Comment, error)
	Delete(ctx context.Context, id string, user *models.User) error
	Policy() thread.Policy
}

// CommentServiceOptions carries the tunables of the comment service
type CommentServiceOptions struct {
	MaxLength int
	Policy    thread.Policy
}

type commentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	cache       cache.Cache
	bus         events.Bus
	maxLength   int
	policy      thread.Policy
	now         func() time.Time
}

// NewCommentService creates a new comment service. A nil cache or bus disables
// caching or event fan-out respectively.
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	c cache.Cache,
	bus events.Bus,
	opts CommentServiceOptions,
) CommentService {
	if c == nil {
		c = cache.Noop{}
	}
	if opts.MaxLength <= 0 || opts.MaxLength > models.MaxCommentLength {
		opts.MaxLength = models.MaxCommentLength
	}
	opts.Policy = opts.Policy.Validate()

	return &commentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		cache:       c,
		bus:         bus,
		maxLength:   opts.MaxLength,
		policy:      opts.Policy,
		now:         time.Now,
	}
}

func (s *commentService) Policy() thread.Policy {
	return s.policy
}

// Create validates and stores a comment or reply
func (s *commentService) Create(ctx context.Context, postID, userID string, req models.CreateCommentRequest) (*models.Comment, error) {
	content, err := utils.ValidateCommentContent(req.Content, s.maxLength)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", postID, err)
	}
	if !post.IsPublished() {
		return nil, fmt.Errorf("comment on %s: %w", post.Slug, models.ErrPostNotPublished)
	}

	var parentID *string
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		pid := strings.TrimSpace(*req.ParentID)
		parent, err := s.commentRepo.GetByID(ctx, pid)
		if err != nil {
			if errors.Is(err, models.ErrCommentNotFound) || errors.Is(err, models.ErrInvalidInput) {
				return nil, fmt.Errorf("reply to %s: %w", pid, models.ErrParentNotFound)
			}
			return nil, fmt.Errorf("reply to %s: %w", pid, err)
		}
		if parent.PostID != postID {
			return nil, fmt.Errorf("reply to %s: %w", pid, models.ErrParentNotFound)
		}
		parentID = &pid
	}

	comment := &models.Comment{
		ID:       utils.GenerateID(),
		PostID:   postID,
		AuthorID: userID,
		ParentID: parentID,
		Content:  content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.changed(ctx, models.CommentCreated, comment, userID, cache.PostKey(post.Slug))
	return comment, nil
}

func (s *commentService) Get(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	return comment, nil
}

// List returns the flat comment list of a post, read through the cache
func (s *commentService) List(ctx context.Context, postID string) ([]models.Comment, error) {
	key := cache.CommentsKey(postID)

	var comments []models.Comment
	found, err := s.cache.Get(ctx, key, &comments)
	if err != nil {
		logger.WithError(err).Warn("comment cache read failed")
	}
	if found {
		return comments, nil
	}

	comments, err = s.commentRepo.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments of %s: %w", postID, err)
	}
	if err := s.cache.Set(ctx, key, comments); err != nil {
		logger.WithError(err).Warn("comment cache write failed")
	}
	return comments, nil
}

func (s *commentService) build(ctx context.Context, postID string) ([]*thread.Node, error) {
	comments, err := s.List(ctx, postID)
	if err != nil {
		return nil, err
	}

	forest, report := thread.BuildWithReport(comments)
	if !report.Empty() {
		logger.WithFields(map[string]interface{}{
			"post_id":         postID,
			"dangling":        report.Dangling,
			"self_references": report.SelfReferences,
			"cycles":          report.Cycles,
			"duplicates":      report.Duplicates,
		}).Warn("comment thread repaired")
	}
	return forest, nil
}

// Thread returns the complete reply tree of a post
func (s *commentService) Thread(ctx context.Context, postID string) (*thread.Snapshot, error) {
	forest, err := s.build(ctx, postID)
	if err != nil {
		return nil, err
	}
	return thread.NewSnapshot(postID, forest), nil
}

// DisclosedThread returns the reply tree cut down by the disclosure policy.
// expansions counts "show more" clicks per comment id.
func (s *commentService) DisclosedThread(ctx context.Context, postID string, expansions map[string]int) (*thread.Snapshot, error) {
	forest, err := s.build(ctx, postID)
	if err != nil {
		return nil, err
	}
	snap := thread.NewSnapshot(postID, forest)
	snap.Views = s.policy.Apply(forest, expansions)
	snap.Comments = nil
	return snap, nil
}

// Update replaces the content of a comment. Only its author may edit it.
func (s *commentService) Update(ctx context.Context, id, userID, content string) (*models.Comment, error) {
	content, err := utils.ValidateCommentContent(content, s.maxLength)
	if err != nil {
		return nil, err
	}

	existing, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	if existing.AuthorID != userID {
		return nil, fmt.Errorf("edit comment %s: %w", id, models.ErrForbidden)
	}

	updated, err := s.commentRepo.UpdateContent(ctx, id, content)
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}

	s.changed(ctx, models.CommentUpdated, updated, userID)
	return updated, nil
}

// Delete hides a comment. Its replies stay and surface as top-level comments.
func (s *commentService) Delete(ctx context.Context, id string, user *models.User) error {
	existing, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get comment %s: %w", id, err)
	}
	if user == nil || (existing.AuthorID != user.ID && !user.HasRole(models.UserRoleModerator)) {
		return fmt.Errorf("delete comment %s: %w", id, models.ErrForbidden)
	}

	if err := s.commentRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	extra := []string{}
	if post, err := s.postRepo.GetByID(ctx, existing.PostID); err == nil {
		extra = append(extra, cache.PostKey(post.Slug))
	}
	s.changed(ctx, models.CommentDeleted, existing, user.ID, extra...)
	return nil
}

// changed drops cached copies of the post's comments and tells subscribers.
// Failures here never fail the write that already happened.
func (s *commentService) changed(ctx context.Context, kind models.CommentEventType, c *models.Comment, userID string, extraKeys ...string) {
	keys := append([]string{cache.CommentsKey(c.PostID)}, extraKeys...)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.WithError(err).Warn("comment cache invalidation failed")
	}

	logger.WithFields(map[string]interface{}{
		"event":      kind,
		"post_id":    c.PostID,
		"comment_id": c.ID,
	}).Debug("comment changed")

	publish(ctx, s.bus, models.CommentEvent{
		Type:      kind,
		PostID:    c.PostID,
		CommentID: c.ID,
		UserID:    userID,
		Timestamp: s.now().UTC(),
	})
}

func publish(ctx context.Context, bus events.Bus, evt models.CommentEvent) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, evt); err != nil {
		logger.WithError(err).WithField("post_id", evt.PostID).Warn("comment event publish failed")
	}
}
