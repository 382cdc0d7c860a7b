package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/client"
	"inkwell/internal/tui/styles"
	"inkwell/pkg/models"
	"inkwell/pkg/thread"
)

type fakeAPI struct {
	snapshot *thread.Snapshot
	err      error
	sent     []models.CreateCommentRequest
}

func (f *fakeAPI) GetPost(ctx context.Context, slug string) (*models.PostWithAuthor, error) {
	return &models.PostWithAuthor{Post: models.Post{Slug: slug, Title: "Hello"}, AuthorName: "alice"}, nil
}

func (f *fakeAPI) Thread(ctx context.Context, slug string) (*thread.Snapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeAPI) AddComment(ctx context.Context, slug, parentID, content string) (*models.Comment, error) {
	req := models.CreateCommentRequest{Content: content}
	if parentID != "" {
		req.ParentID = &parentID
	}
	f.sent = append(f.sent, req)
	return &models.Comment{ID: "new", Content: content, ParentID: req.ParentID}, nil
}

func (f *fakeAPI) Watch(ctx context.Context, slug string) (<-chan client.Update, error) {
	return nil, errors.New("no socket")
}

// root "a" with five replies b1..b5, and an older root "z"
func sampleSnapshot(extra ...models.Comment) *thread.Snapshot {
	parent := "a"
	comments := []models.Comment{
		{ID: "z", AuthorName: "zed", Content: "old", CreatedAt: time.Unix(1, 0)},
		{ID: "a", AuthorName: "ann", Content: "root", CreatedAt: time.Unix(10, 0)},
	}
	for i := 1; i <= 5; i++ {
		comments = append(comments, models.Comment{
			ID:         fmt.Sprintf("b%d", i),
			ParentID:   &parent,
			AuthorName: "bob",
			Content:    fmt.Sprintf("reply %d", i),
			CreatedAt:  time.Unix(int64(10+i), 0),
		})
	}
	comments = append(comments, extra...)
	return thread.NewSnapshot("p1", thread.Build(comments))
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	m, _ = update(t, m, msg)
	return m
}

func rowKeys(m Model) []string {
	keys := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		keys = append(keys, r.key())
	}
	return keys
}

func loaded(t *testing.T, api *fakeAPI) Model {
	t.Helper()
	api.snapshot = sampleSnapshot()
	m := New(api, "hello", Options{Policy: thread.DefaultPolicy()})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, threadLoadedMsg{snapshot: api.snapshot})
	return m
}

func TestInitialLayout(t *testing.T) {
	m := loaded(t, &fakeAPI{})

	assert.False(t, m.loading)
	assert.Equal(t, []string{"a", "b1", "b2", "b3", "more:a", "z"}, rowKeys(m))
	assert.Equal(t, 2, m.rows[4].hidden)
	assert.Contains(t, m.View(), "2 more replies")
}

func TestExpandFromMoreRow(t *testing.T) {
	m := loaded(t, &fakeAPI{})

	for i := 0; i < 4; i++ {
		m = press(t, m, "j")
	}
	require.Equal(t, "more:a", m.currentKey())

	m = press(t, m, "enter")
	assert.Equal(t, []string{"a", "b1", "b2", "b3", "b4", "b5", "z"}, rowKeys(m))
	assert.Equal(t, "b4", m.currentKey())
	assert.Equal(t, 1, m.expansions["a"])
}

func TestCollapse(t *testing.T) {
	m := loaded(t, &fakeAPI{})
	m = press(t, m, "enter") // expand a from its own row
	require.Len(t, m.rows, 7)

	m = press(t, m, "j")
	m = press(t, m, "j")
	require.Equal(t, "b2", m.currentKey())

	// nothing revealed under b2: walk up to the parent
	m = press(t, m, "h")
	assert.Equal(t, "a", m.currentKey())

	m = press(t, m, "h")
	assert.Equal(t, []string{"a", "b1", "b2", "b3", "more:a", "z"}, rowKeys(m))
	assert.Empty(t, m.expansions)

	m = press(t, m, "enter")
	m = press(t, m, "z")
	assert.Len(t, m.rows, 6)
}

func TestCursorFollowsCommentAcrossUpdates(t *testing.T) {
	m := loaded(t, &fakeAPI{})
	m = press(t, m, "j")
	m = press(t, m, "j")
	require.Equal(t, "b2", m.currentKey())

	newer := models.Comment{ID: "n", AuthorName: "nia", Content: "late", CreatedAt: time.Unix(100, 0)}
	m, _ = update(t, m, liveMsg{ok: true, update: client.Update{Snapshot: sampleSnapshot(newer)}})

	assert.Equal(t, "n", m.rows[0].key())
	assert.Equal(t, "b2", m.currentKey())
	assert.Equal(t, 3, m.cursor)
}

func TestReply(t *testing.T) {
	api := &fakeAPI{}
	m := loaded(t, api)
	m = press(t, m, "j")
	m = press(t, m, "r")
	require.True(t, m.replying)
	assert.Contains(t, m.View(), "Reply to bob")

	// blank input is not sent
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.True(t, m.replying)

	m = press(t, m, "thanks")
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, m.replying)

	msg := cmd()
	require.IsType(t, commentSentMsg{}, msg)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "thanks", api.sent[0].Content)
	require.NotNil(t, api.sent[0].ParentID)
	assert.Equal(t, "b1", *api.sent[0].ParentID)

	// not live: the thread is reloaded
	m, cmd = update(t, m, msg)
	assert.Equal(t, "Comment posted", m.status)
	assert.Equal(t, styles.SuccessStyle, m.statusStyle)
	require.NotNil(t, cmd)
	assert.IsType(t, threadLoadedMsg{}, cmd())
}

func TestCommentCancel(t *testing.T) {
	m := loaded(t, &fakeAPI{})
	m = press(t, m, "c")
	require.True(t, m.replying)
	assert.Nil(t, m.replyTo)
	assert.Contains(t, m.View(), "Comment: ")

	m = press(t, m, "esc")
	assert.False(t, m.replying)
}

func TestLoadFailureAndRetry(t *testing.T) {
	api := &fakeAPI{err: errors.New("connection refused")}
	m := New(api, "hello", Options{})
	m, _ = update(t, m, loadFailedMsg{err: api.err})
	assert.Contains(t, m.View(), "connection refused")

	api.err = nil
	api.snapshot = sampleSnapshot()
	m = press(t, m, "R")
	assert.True(t, m.loading)
	assert.False(t, m.errView.HasError())

	m, _ = update(t, m, threadLoadedMsg{snapshot: api.snapshot})
	assert.Len(t, m.rows, 6)
}

func TestLiveLifecycle(t *testing.T) {
	m := loaded(t, &fakeAPI{})

	m, _ = update(t, m, watchFailedMsg{err: errors.New("no socket")})
	assert.False(t, m.live)
	assert.Contains(t, m.status, "no socket")
	assert.Equal(t, styles.ErrorStyle, m.statusStyle)

	updates := make(chan client.Update, 1)
	m, cmd := update(t, m, watchStartedMsg{updates: updates})
	assert.True(t, m.live)
	require.NotNil(t, cmd)

	close(updates)
	m, _ = update(t, m, cmd())
	assert.False(t, m.live)
	assert.Equal(t, "live updates stopped", m.status)
}

func TestDeepRowsCannotExpand(t *testing.T) {
	comments := []models.Comment{{ID: "l0", CreatedAt: time.Unix(0, 0)}}
	for i := 1; i < 5; i++ {
		parent := fmt.Sprintf("l%d", i-1)
		comments = append(comments, models.Comment{ID: fmt.Sprintf("l%d", i), ParentID: &parent, CreatedAt: time.Unix(int64(i), 0)})
	}
	api := &fakeAPI{}
	m := New(api, "hello", Options{Policy: thread.Policy{MaxDepth: 2}})
	m, _ = update(t, m, threadLoadedMsg{snapshot: thread.NewSnapshot("p1", thread.Build(comments))})

	assert.Equal(t, []string{"l0", "l1", "deep:l1"}, rowKeys(m))
	assert.Equal(t, 3, m.rows[2].hidden)

	m = press(t, m, "G")
	m = press(t, m, "enter")
	assert.Equal(t, []string{"l0", "l1", "deep:l1"}, rowKeys(m))
}
