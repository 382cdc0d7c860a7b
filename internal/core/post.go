package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/repository"
	"inkwell/pkg/logger"
	"inkwell/pkg/models"
	"inkwell/pkg/utils"
)

// PostService defines post operations. viewer may be nil for anonymous readers.
type PostService interface {
	Create(ctx context.Context, author *models.User, req models.CreatePostRequest) (*models.PostWithAuthor, error)
	GetBySlug(ctx context.Context, slug string, viewer *models.User) (*models.PostWithAuthor, error)
	// GetByID loads the post a comment belongs to, with the same visibility
	// rule as GetBySlug.
	GetByID(ctx context.Context, id string, viewer *models.User) (*models.PostWithAuthor, error)
	List(ctx context.Context, req models.PostSearchRequest, viewer *models.User) (*models.PaginatedResponse[models.PostWithAuthor], error)
	Search(ctx context.Context, query string, limit, offset int) (*models.PaginatedResponse[models.PostSearchResult], error)
	Update(ctx context.Context, slug string, user *models.User, req models.UpdatePostRequest) (*models.PostWithAuthor, error)
	Publish(ctx context.Context, slug string, user *models.User) (*models.PostWithAuthor, error)
	Delete(ctx context.Context, slug string, user *models.User) error
}

type postService struct {
	postRepo repository.PostRepository
	cache    cache.Cache
	now      func() time.Time
}

// NewPostService creates a new post service
func NewPostService(postRepo repository.PostRepository, c cache.Cache) PostService {
	if c == nil {
		c = cache.Noop{}
	}
	return &postService{postRepo: postRepo, cache: c, now: time.Now}
}

// canSee reports whether viewer may read a post in its current status
func canSee(post *models.Post, viewer *models.User) bool {
	if post.IsPublished() {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.ID == post.AuthorID || viewer.HasRole(models.UserRoleModerator)
}

// canEdit reports whether user may change or delete a post
func canEdit(post *models.Post, user *models.User) bool {
	return user != nil && (user.ID == post.AuthorID || user.HasRole(models.UserRoleModerator))
}

func (s *postService) Create(ctx context.Context, author *models.User, req models.CreatePostRequest) (*models.PostWithAuthor, error) {
	if !author.HasRole(models.UserRoleAuthor) {
		return nil, fmt.Errorf("create post: %w", models.ErrForbidden)
	}
	if err := utils.ValidateTitle(req.Title); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", models.ErrInvalidInput)
	}

	slug, err := s.uniqueSlug(ctx, req.Title)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID:   author.ID,
		CategoryID: req.CategoryID,
		Title:      strings.TrimSpace(req.Title),
		Slug:       slug,
		Excerpt:    excerpt(req.Excerpt, req.Content),
		Content:    req.Content,
		Status:     models.PostStatusDraft,
	}
	if req.Publish {
		now := s.now()
		post.Status = models.PostStatusPublished
		post.PublishedAt = &now
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"post_id": post.ID,
		"slug":    post.Slug,
		"status":  post.Status,
	}).Info("post created")

	return s.postRepo.GetByID(ctx, post.ID)
}

// uniqueSlug derives a slug from title, adding -2, -3, ... on collision
func (s *postService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := utils.Slugify(title)
	candidate := base
	for i := 2; i <= 50; i++ {
		exists, err := s.postRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + utils.GenerateID()[:8], nil
}

func excerpt(given, content string) string {
	if e := strings.TrimSpace(given); e != "" {
		return e
	}
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= 200 {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:200])) + "…"
}

func (s *postService) GetBySlug(ctx context.Context, slug string, viewer *models.User) (*models.PostWithAuthor, error) {
	var post models.PostWithAuthor
	found, err := s.cache.Get(ctx, cache.PostKey(slug), &post)
	if err != nil {
		logger.WithError(err).Warn("post cache read failed")
	}
	if !found {
		fresh, err := s.postRepo.GetBySlug(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("get post %s: %w", slug, err)
		}
		post = *fresh
		if fresh.IsPublished() {
			if err := s.cache.Set(ctx, cache.PostKey(slug), fresh); err != nil {
				logger.WithError(err).Warn("post cache write failed")
			}
		}
	}

	if !canSee(&post.Post, viewer) {
		return nil, fmt.Errorf("get post %s: %w", slug, models.ErrPostNotFound)
	}
	return &post, nil
}

func (s *postService) GetByID(ctx context.Context, id string, viewer *models.User) (*models.PostWithAuthor, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	if !canSee(&post.Post, viewer) {
		return nil, fmt.Errorf("get post %s: %w", id, models.ErrPostNotFound)
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, req models.PostSearchRequest, viewer *models.User) (*models.PaginatedResponse[models.PostWithAuthor], error) {
	if err := models.ValidatePostSearch(&req); err != nil {
		return nil, err
	}

	filter := repository.PostListFilter{
		CategorySlug: req.CategorySlug,
		AuthorID:     req.AuthorID,
		Status:       models.PostStatus(req.Status),
		Limit:        req.Limit,
		Offset:       req.Offset,
	}
	// only an author looking at their own posts, or a moderator, sees drafts
	ownList := viewer != nil && req.AuthorID != "" && req.AuthorID == viewer.ID
	if filter.Status == "" || (filter.Status != models.PostStatusPublished && !ownList && (viewer == nil || !viewer.HasRole(models.UserRoleModerator))) {
		filter.Status = models.PostStatusPublished
	}

	posts, total, err := s.postRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return &models.PaginatedResponse[models.PostWithAuthor]{
		Data: posts,
		Meta: models.NewPaginationMeta(total, req.Limit, req.Offset),
	}, nil
}

func (s *postService) Search(ctx context.Context, query string, limit, offset int) (*models.PaginatedResponse[models.PostSearchResult], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", models.ErrInvalidInput)
	}
	req := models.PostSearchRequest{Query: query, Limit: limit, Offset: offset}
	if err := models.ValidatePostSearch(&req); err != nil {
		return nil, err
	}
	ctx, cancel := utils.WithLongTimeout(ctx)
	defer cancel()
	results, total, err := s.postRepo.Search(ctx, req.Query, req.Limit, req.Offset)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return &models.PaginatedResponse[models.PostSearchResult]{
		Data: results,
		Meta: models.NewPaginationMeta(total, req.Limit, req.Offset),
	}, nil
}

func (s *postService) editable(ctx context.Context, slug string, user *models.User) (*models.PostWithAuthor, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", slug, err)
	}
	if !canSee(&post.Post, user) {
		return nil, fmt.Errorf("get post %s: %w", slug, models.ErrPostNotFound)
	}
	if !canEdit(&post.Post, user) {
		return nil, fmt.Errorf("edit post %s: %w", slug, models.ErrForbidden)
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, slug string, user *models.User, req models.UpdatePostRequest) (*models.PostWithAuthor, error) {
	post, err := s.editable(ctx, slug, user)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if err := utils.ValidateTitle(*req.Title); err != nil {
			return nil, err
		}
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, fmt.Errorf("%w: content is required", models.ErrInvalidInput)
		}
		post.Content = *req.Content
	}
	if req.Excerpt != nil {
		post.Excerpt = excerpt(*req.Excerpt, post.Content)
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			post.CategoryID = nil
		} else {
			post.CategoryID = req.CategoryID
		}
	}
	if req.Status != nil {
		if !models.IsValidPostStatus(*req.Status) {
			return nil, fmt.Errorf("%w: invalid status %q", models.ErrInvalidInput, *req.Status)
		}
		s.setStatus(&post.Post, models.PostStatus(*req.Status))
	}

	if err := s.postRepo.Update(ctx, &post.Post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	s.invalidate(ctx, slug)
	return post, nil
}

func (s *postService) setStatus(post *models.Post, status models.PostStatus) {
	if status == models.PostStatusPublished && post.PublishedAt == nil {
		now := s.now()
		post.PublishedAt = &now
	}
	post.Status = status
}

func (s *postService) Publish(ctx context.Context, slug string, user *models.User) (*models.PostWithAuthor, error) {
	status := string(models.PostStatusPublished)
	return s.Update(ctx, slug, user, models.UpdatePostRequest{Status: &status})
}

func (s *postService) Delete(ctx context.Context, slug string, user *models.User) error {
	post, err := s.editable(ctx, slug, user)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.invalidate(ctx, slug, cache.CommentsKey(post.ID))
	return nil
}

func (s *postService) invalidate(ctx context.Context, slug string, extra ...string) {
	keys := append([]string{cache.PostKey(slug)}, extra...)
	if err := s.cache.Delete(ctx, keys...); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Warn("post cache invalidation failed")
	}
}
