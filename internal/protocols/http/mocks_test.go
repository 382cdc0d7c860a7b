package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"inkwell/internal/core"
	"inkwell/pkg/models"
	"inkwell/pkg/thread"
)

type mockAuth struct{ mock.Mock }

var _ core.AuthService = (*mockAuth)(nil)

func (m *mockAuth) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*models.LoginResponse)
	return r, args.Error(1)
}

func (m *mockAuth) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuth) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuth) GetProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	args := m.Called(ctx, username)
	p, _ := args.Get(0).(*models.UserProfile)
	return p, args.Error(1)
}

func (m *mockAuth) UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.UserProfile, error) {
	args := m.Called(ctx, id, req)
	p, _ := args.Get(0).(*models.UserProfile)
	return p, args.Error(1)
}

func (m *mockAuth) UpdateUserRole(ctx context.Context, id, role string) error {
	return m.Called(ctx, id, role).Error(0)
}

type mockPosts struct{ mock.Mock }

var _ core.PostService = (*mockPosts)(nil)

func (m *mockPosts) Create(ctx context.Context, author *models.User, req models.CreatePostRequest) (*models.PostWithAuthor, error) {
	args := m.Called(ctx, author, req)
	p, _ := args.Get(0).(*models.PostWithAuthor)
	return p, args.Error(1)
}

func (m *mockPosts) GetBySlug(ctx context.Context, slug string, viewer *models.User) (*models.PostWithAuthor, error) {
	args := m.Called(ctx, slug, viewer)
	p, _ := args.Get(0).(*models.PostWithAuthor)
	return p, args.Error(1)
}

func (m *mockPosts) GetByID(ctx context.Context, id string, viewer *models.User) (*models.PostWithAuthor, error) {
	args := m.Called(ctx, id, viewer)
	p, _ := args.Get(0).(*models.PostWithAuthor)
	return p, args.Error(1)
}

func (m *mockPosts) List(ctx context.Context, req models.PostSearchRequest, viewer *models.User) (*models.PaginatedResponse[models.PostWithAuthor], error) {
	args := m.Called(ctx, req, viewer)
	p, _ := args.Get(0).(*models.PaginatedResponse[models.PostWithAuthor])
	return p, args.Error(1)
}

func (m *mockPosts) Search(ctx context.Context, query string, limit, offset int) (*models.PaginatedResponse[models.PostSearchResult], error) {
	args := m.Called(ctx, query, limit, offset)
	p, _ := args.Get(0).(*models.PaginatedResponse[models.PostSearchResult])
	return p, args.Error(1)
}

func (m *mockPosts) Update(ctx context.Context, slug string, user *models.User, req models.UpdatePostRequest) (*models.PostWithAuthor, error) {
	args := m.Called(ctx, slug, user, req)
	p, _ := args.Get(0).(*models.PostWithAuthor)
	return p, args.Error(1)
}

func (m *mockPosts) Publish(ctx context.Context, slug string, user *models.User) (*models.PostWithAuthor, error) {
	args := m.Called(ctx, slug, user)
	p, _ := args.Get(0).(*models.PostWithAuthor)
	return p, args.Error(1)
}

func (m *mockPosts) Delete(ctx context.Context, slug string, user *models.User) error {
	return m.Called(ctx, slug, user).Error(0)
}

type mockComments struct{ mock.Mock }

var _ core.CommentService = (*mockComments)(nil)

func (m *mockComments) Create(ctx context.Context, postID, userID string, req models.CreateCommentRequest) (*models.Comment, error) {
	args := m.Called(ctx, postID, userID, req)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *mockComments) Get(ctx context.Context, id string) (*models.Comment, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *mockComments) List(ctx context.Context, postID string) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	list, _ := args.Get(0).([]models.Comment)
	return list, args.Error(1)
}

func (m *mockComments) Thread(ctx context.Context, postID string) (*thread.Snapshot, error) {
	args := m.Called(ctx, postID)
	s, _ := args.Get(0).(*thread.Snapshot)
	return s, args.Error(1)
}

func (m *mockComments) DisclosedThread(ctx context.Context, postID string, expansions map[string]int) (*thread.Snapshot, error) {
	args := m.Called(ctx, postID, expansions)
	s, _ := args.Get(0).(*thread.Snapshot)
	return s, args.Error(1)
}

func (m *mockComments) Update(ctx context.Context, id, userID, content string) (*models.Comment, error) {
	args := m.Called(ctx, id, userID, content)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}

func (m *mockComments) Delete(ctx context.Context, id string, user *models.User) error {
	return m.Called(ctx, id, user).Error(0)
}

func (m *mockComments) Policy() thread.Policy { return thread.DefaultPolicy() }

type mockLikes struct{ mock.Mock }

var _ core.LikeService = (*mockLikes)(nil)

func (m *mockLikes) TogglePostLike(ctx context.Context, userID, slug string) (*models.LikeResult, error) {
	args := m.Called(ctx, userID, slug)
	r, _ := args.Get(0).(*models.LikeResult)
	return r, args.Error(1)
}

func (m *mockLikes) ToggleCommentLike(ctx context.Context, userID, commentID string) (*models.LikeResult, error) {
	args := m.Called(ctx, userID, commentID)
	r, _ := args.Get(0).(*models.LikeResult)
	return r, args.Error(1)
}

type mockCategories struct{ mock.Mock }

var _ core.CategoryService = (*mockCategories)(nil)

func (m *mockCategories) Create(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	args := m.Called(ctx, req)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *mockCategories) List(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Category)
	return list, args.Error(1)
}

func (m *mockCategories) Delete(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}
