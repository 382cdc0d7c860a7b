package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inkwell/internal/cache"
	"inkwell/pkg/models"
	"inkwell/pkg/thread"
)

type commentFixture struct {
	comments *mockCommentRepo
	posts    *mockPostRepo
	cache    *cache.Memory
	bus      *recordingBus
	svc      CommentService
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	f := &commentFixture{
		comments: &mockCommentRepo{},
		posts:    &mockPostRepo{},
		cache:    cache.NewMemory(time.Minute),
		bus:      &recordingBus{},
	}
	f.svc = NewCommentService(f.comments, f.posts, f.cache, f.bus, CommentServiceOptions{MaxLength: 20})
	t.Cleanup(func() {
		f.comments.AssertExpectations(t)
		f.posts.AssertExpectations(t)
	})
	return f
}

func publishedPost(id, slug string) *models.PostWithAuthor {
	return &models.PostWithAuthor{Post: models.Post{ID: id, Slug: slug, Status: models.PostStatusPublished}}
}

func at(min int) time.Time {
	return time.Date(2024, 3, 1, 12, min, 0, 0, time.UTC)
}

func TestCommentCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("top level comment", func(t *testing.T) {
		f := newCommentFixture(t)
		require.NoError(t, f.cache.Set(ctx, cache.CommentsKey("p1"), []models.Comment{}))

		f.posts.On("GetByID", mock.Anything, "p1").Return(publishedPost("p1", "hello"), nil)
		f.comments.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Comment) bool {
			return c.PostID == "p1" && c.AuthorID == "u1" && c.ParentID == nil && c.Content == "nice post"
		})).Return(nil)

		c, err := f.svc.Create(ctx, "p1", "u1", models.CreateCommentRequest{Content: "  nice post  "})
		require.NoError(t, err)
		assert.NotEmpty(t, c.ID)

		var cached []models.Comment
		found, _ := f.cache.Get(ctx, cache.CommentsKey("p1"), &cached)
		assert.False(t, found, "flat list must be invalidated")

		evts := f.bus.published()
		require.Len(t, evts, 1)
		assert.Equal(t, models.CommentCreated, evts[0].Type)
		assert.Equal(t, "p1", evts[0].PostID)
		assert.Equal(t, c.ID, evts[0].CommentID)
	})

	t.Run("reply", func(t *testing.T) {
		f := newCommentFixture(t)
		f.posts.On("GetByID", mock.Anything, "p1").Return(publishedPost("p1", "hello"), nil)
		f.comments.On("GetByID", mock.Anything, "c1").Return(&models.Comment{ID: "c1", PostID: "p1"}, nil)
		f.comments.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Comment) bool {
			return c.ParentID != nil && *c.ParentID == "c1"
		})).Return(nil)

		c, err := f.svc.Create(ctx, "p1", "u1", models.CreateCommentRequest{ParentID: strPtr("c1"), Content: "agreed"})
		require.NoError(t, err)
		assert.True(t, c.IsReply())
	})

	t.Run("empty parent id is a top level comment", func(t *testing.T) {
		f := newCommentFixture(t)
		f.posts.On("GetByID", mock.Anything, "p1").Return(publishedPost("p1", "hello"), nil)
		f.comments.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Comment) bool {
			return c.ParentID == nil
		})).Return(nil)

		_, err := f.svc.Create(ctx, "p1", "u1", models.CreateCommentRequest{ParentID: strPtr(" "), Content: "hi"})
		require.NoError(t, err)
	})

	t.Run("content rules", func(t *testing.T) {
		f := newCommentFixture(t)
		_, err := f.svc.Create(ctx, "p1", "u1", models.CreateCommentRequest{Content: "   "})
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		_, err = f.svc.Create(ctx, "p1", "u1", models.CreateCommentRequest{Content: "this is more than twenty characters"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		assert.Empty(t, f.bus.published())
	})

	t.Run("draft post", func(t *testing.T) {
		f := newCommentFixture(t)
		draft := publishedPost("p1", "hello")
		draft.Status = models.PostStatusDraft
		f.posts.On("GetByID", mock.Anything, "p1").Return(draft, nil)

		_, err := f.svc.Create(ctx, "p1", "u1", models.CreateCommentRequest{Content: "first"})
		assert.ErrorIs(t, err, models.ErrPostNotPublished)
	})

	t.Run("parent on another post", func(t *testing.T) {
		f := newCommentFixture(t)
		f.posts.On("GetByID", mock.Anything, "p1").Return(publishedPost("p1", "hello"), nil)
		f.comments.On("GetByID", mock.Anything, "c9").Return(&models.Comment{ID: "c9", PostID: "p2"}, nil)

		_, err := f.svc.Create(ctx, "p1", "u1", models.CreateCommentRequest{ParentID: strPtr("c9"), Content: "hi"})
		assert.ErrorIs(t, err, models.ErrParentNotFound)
	})

	t.Run("missing parent", func(t *testing.T) {
		f := newCommentFixture(t)
		f.posts.On("GetByID", mock.Anything, "p1").Return(publishedPost("p1", "hello"), nil)
		f.comments.On("GetByID", mock.Anything, "gone").Return(nil, models.ErrCommentNotFound)

		_, err := f.svc.Create(ctx, "p1", "u1", models.CreateCommentRequest{ParentID: strPtr("gone"), Content: "hi"})
		assert.ErrorIs(t, err, models.ErrParentNotFound)
	})
}

func TestCommentThread(t *testing.T) {
	ctx := context.Background()
	f := newCommentFixture(t)

	flat := []models.Comment{
		{ID: "r1", PostID: "p1", CreatedAt: at(1)},
		{ID: "r2", PostID: "p1", CreatedAt: at(2)},
		{ID: "a", PostID: "p1", ParentID: strPtr("r1"), CreatedAt: at(3)},
		{ID: "b", PostID: "p1", ParentID: strPtr("a"), CreatedAt: at(4)},
		{ID: "orphan", PostID: "p1", ParentID: strPtr("deleted"), CreatedAt: at(5)},
	}
	f.comments.On("ListByPostID", mock.Anything, "p1").Return(flat, nil).Once()

	snap, err := f.svc.Thread(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", snap.PostID)
	assert.Equal(t, 5, snap.Total)
	assert.Equal(t, 3, snap.Depth)
	require.Len(t, snap.Comments, 3)
	assert.Equal(t, "orphan", snap.Comments[0].ID)
	assert.Equal(t, "r2", snap.Comments[1].ID)
	assert.Equal(t, "r1", snap.Comments[2].ID)
	b, ok := thread.FindByID(snap.Comments, "b")
	require.True(t, ok)
	assert.Equal(t, 2, b.Level)

	// served from the cache, same shape
	again, err := f.svc.Thread(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, snap.Total, again.Total)
	assert.Equal(t, "orphan", again.Comments[0].ID)
}

func TestCommentDisclosedThread(t *testing.T) {
	ctx := context.Background()
	f := newCommentFixture(t)

	flat := []models.Comment{{ID: "root", PostID: "p1", CreatedAt: at(0)}}
	for i := 1; i <= 5; i++ {
		flat = append(flat, models.Comment{
			ID: "r" + string(rune('0'+i)), PostID: "p1", ParentID: strPtr("root"), CreatedAt: at(i),
		})
	}
	f.comments.On("ListByPostID", mock.Anything, "p1").Return(flat, nil).Once()

	snap, err := f.svc.DisclosedThread(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Nil(t, snap.Comments)
	assert.Equal(t, 6, snap.Total)
	require.Len(t, snap.Views, 1)
	assert.Len(t, snap.Views[0].Replies, thread.DefaultPolicy().InitialReplies)
	assert.Equal(t, 2, snap.Views[0].HiddenReplies)

	snap, err = f.svc.DisclosedThread(ctx, "p1", map[string]int{"root": 1})
	require.NoError(t, err)
	assert.Len(t, snap.Views[0].Replies, 5)
	assert.Zero(t, snap.Views[0].HiddenReplies)
}

func TestCommentUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("author edits", func(t *testing.T) {
		f := newCommentFixture(t)
		f.comments.On("GetByID", mock.Anything, "c1").Return(&models.Comment{ID: "c1", PostID: "p1", AuthorID: "u1"}, nil)
		f.comments.On("UpdateContent", mock.Anything, "c1", "edited").
			Return(&models.Comment{ID: "c1", PostID: "p1", AuthorID: "u1", Content: "edited"}, nil)

		c, err := f.svc.Update(ctx, "c1", "u1", " edited ")
		require.NoError(t, err)
		assert.Equal(t, "edited", c.Content)
		require.Len(t, f.bus.published(), 1)
		assert.Equal(t, models.CommentUpdated, f.bus.published()[0].Type)
	})

	t.Run("someone else", func(t *testing.T) {
		f := newCommentFixture(t)
		f.comments.On("GetByID", mock.Anything, "c1").Return(&models.Comment{ID: "c1", PostID: "p1", AuthorID: "u1"}, nil)

		_, err := f.svc.Update(ctx, "c1", "u2", "edited")
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestCommentDelete(t *testing.T) {
	ctx := context.Background()
	existing := &models.Comment{ID: "c1", PostID: "p1", AuthorID: "u1"}

	t.Run("moderator", func(t *testing.T) {
		f := newCommentFixture(t)
		f.comments.On("GetByID", mock.Anything, "c1").Return(existing, nil)
		f.comments.On("SoftDelete", mock.Anything, "c1").Return(nil)
		f.posts.On("GetByID", mock.Anything, "p1").Return(publishedPost("p1", "hello"), nil)
		require.NoError(t, f.cache.Set(ctx, cache.PostKey("hello"), publishedPost("p1", "hello")))

		mod := &models.User{ID: "m1", Role: models.UserRoleModerator}
		require.NoError(t, f.svc.Delete(ctx, "c1", mod))

		var post models.PostWithAuthor
		found, _ := f.cache.Get(ctx, cache.PostKey("hello"), &post)
		assert.False(t, found)
		require.Len(t, f.bus.published(), 1)
		assert.Equal(t, models.CommentDeleted, f.bus.published()[0].Type)
		assert.Equal(t, "m1", f.bus.published()[0].UserID)
	})

	t.Run("plain user on someone else's comment", func(t *testing.T) {
		f := newCommentFixture(t)
		f.comments.On("GetByID", mock.Anything, "c1").Return(existing, nil)

		err := f.svc.Delete(ctx, "c1", &models.User{ID: "u2", Role: models.UserRoleUser})
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("missing", func(t *testing.T) {
		f := newCommentFixture(t)
		f.comments.On("GetByID", mock.Anything, "nope").Return(nil, models.ErrCommentNotFound)

		err := f.svc.Delete(ctx, "nope", &models.User{ID: "u1"})
		assert.ErrorIs(t, err, models.ErrCommentNotFound)
	})
}

func TestCommentServiceDefaults(t *testing.T) {
	svc := NewCommentService(&mockCommentRepo{}, &mockPostRepo{}, nil, nil, CommentServiceOptions{})
	assert.Equal(t, thread.DefaultPolicy(), svc.Policy())
}
