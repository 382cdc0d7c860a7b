package core

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"inkwell/internal/events"
	"inkwell/internal/repository"
	"inkwell/pkg/models"
)

type mockUserRepo struct{ mock.Mock }

var _ repository.UserRepository = (*mockUserRepo)(nil)

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == "" {
		user.ID = "generated-user"
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, id, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type mockPostRepo struct{ mock.Mock }

var _ repository.PostRepository = (*mockPostRepo)(nil)

func (m *mockPostRepo) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	if args.Error(0) == nil && post.ID == "" {
		post.ID = "generated-post"
	}
	return args.Error(0)
}

func (m *mockPostRepo) GetByID(ctx context.Context, id string) (*models.PostWithAuthor, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.PostWithAuthor)
	return p, args.Error(1)
}

func (m *mockPostRepo) GetBySlug(ctx context.Context, slug string) (*models.PostWithAuthor, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(*models.PostWithAuthor)
	return p, args.Error(1)
}

func (m *mockPostRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockPostRepo) List(ctx context.Context, filter repository.PostListFilter) ([]models.PostWithAuthor, int, error) {
	args := m.Called(ctx, filter)
	posts, _ := args.Get(0).([]models.PostWithAuthor)
	return posts, args.Int(1), args.Error(2)
}

func (m *mockPostRepo) Search(ctx context.Context, query string, limit, offset int) ([]models.PostSearchResult, int, error) {
	args := m.Called(ctx, query, limit, offset)
	results, _ := args.Get(0).([]models.PostSearchResult)
	return results, args.Int(1), args.Error(2)
}

func (m *mockPostRepo) Update(ctx context.Context, post *models.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *mockPostRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPostRepo) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type mockCommentRepo struct{ mock.Mock }

var _ repository.CommentRepository = (*mockCommentRepo)(nil)

func (m *mockCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *mockCommentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *mockCommentRepo) ListByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	list, _ := args.Get(0).([]models.Comment)
	return list, args.Error(1)
}

func (m *mockCommentRepo) UpdateContent(ctx context.Context, id, content string) (*models.Comment, error) {
	args := m.Called(ctx, id, content)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *mockCommentRepo) SoftDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCommentRepo) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type mockLikeRepo struct{ mock.Mock }

var _ repository.LikeRepository = (*mockLikeRepo)(nil)

func (m *mockLikeRepo) Toggle(ctx context.Context, userID string, target models.LikeTarget, targetID string) (bool, int, error) {
	args := m.Called(ctx, userID, target, targetID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *mockLikeRepo) HasLiked(ctx context.Context, userID string, target models.LikeTarget, targetID string) (bool, error) {
	args := m.Called(ctx, userID, target, targetID)
	return args.Bool(0), args.Error(1)
}

type mockCategoryRepo struct{ mock.Mock }

var _ repository.CategoryRepository = (*mockCategoryRepo)(nil)

func (m *mockCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Category)
	return list, args.Error(1)
}

func (m *mockCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// recordingBus keeps every published event
type recordingBus struct {
	mu   sync.Mutex
	sent []models.CommentEvent
}

var _ events.Bus = (*recordingBus)(nil)

func (b *recordingBus) Publish(_ context.Context, evt models.CommentEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, evt)
	return nil
}

func (b *recordingBus) Subscribe(events.Handler) (func(), error) {
	return func() {}, nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) published() []models.CommentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.CommentEvent(nil), b.sent...)
}

func strPtr(s string) *string { return &s }
