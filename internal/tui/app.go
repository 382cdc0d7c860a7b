// Package tui is the terminal thread viewer: it shows the comments of one
// post as a tree, disclosed a few replies at a time, and follows changes live.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"inkwell/internal/client"
	"inkwell/internal/tui/components"
	"inkwell/internal/tui/styles"
	"inkwell/pkg/models"
	"inkwell/pkg/thread"
	"inkwell/pkg/utils"
)

const requestTimeout = 15 * time.Second

// API is the part of the inkwell client the viewer needs
type API interface {
	GetPost(ctx context.Context, slug string) (*models.PostWithAuthor, error)
	Thread(ctx context.Context, slug string) (*thread.Snapshot, error)
	AddComment(ctx context.Context, slug, parentID, content string) (*models.Comment, error)
	Watch(ctx context.Context, slug string) (<-chan client.Update, error)
}

// Options tune the viewer
type Options struct {
	Policy thread.Policy
	// Live subscribes to the post's comment socket
	Live bool
	// Expansions seeds the "show more" counts, keyed by comment id
	Expansions map[string]int
}

type (
	postLoadedMsg   struct{ post *models.PostWithAuthor }
	threadLoadedMsg struct{ snapshot *thread.Snapshot }
	loadFailedMsg   struct{ err error }
	watchStartedMsg struct{ updates <-chan client.Update }
	watchFailedMsg  struct{ err error }
	liveMsg         struct {
		update client.Update
		ok     bool
	}
	commentSentMsg struct{ comment *models.Comment }
	sendFailedMsg  struct{ err error }
)

// Model is the root Bubble Tea model
type Model struct {
	api    API
	slug   string
	policy thread.Policy

	keys     KeyMap
	help     help.Model
	spinner  components.Spinner
	errView  components.ErrorView
	input    textinput.Model
	replying bool
	replyTo  *thread.Node

	post       *models.PostWithAuthor
	snapshot   *thread.Snapshot
	expansions map[string]int
	rows       []row
	cursor     int
	offset     int

	follow  bool
	live    bool
	updates <-chan client.Update
	ctx     context.Context
	cancel  context.CancelFunc

	loading     bool
	status      string
	statusStyle lipgloss.Style
	width       int
	height      int
}

// New creates the viewer for the post with the given slug
func New(api API, slug string, opts Options) Model {
	input := textinput.New()
	input.Placeholder = "Write a comment..."
	input.CharLimit = models.MaxCommentLength
	input.Width = 60

	expansions := make(map[string]int, len(opts.Expansions))
	for id, n := range opts.Expansions {
		expansions[id] = n
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		api:        api,
		slug:       slug,
		policy:     opts.Policy.Validate(),
		keys:       DefaultKeyMap(),
		help:       help.New(),
		spinner:    components.NewSpinner("Loading comments..."),
		input:      input,
		expansions: expansions,
		ctx:        ctx,
		cancel:     cancel,
		follow:     opts.Live,
		loading:    true,
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.loadPost(), m.loadThread()}
	if m.follow {
		cmds = append(cmds, m.watch())
	}
	return tea.Batch(cmds...)
}

func (m Model) loadPost() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, requestTimeout)
		defer cancel()
		post, err := m.api.GetPost(ctx, m.slug)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return postLoadedMsg{post: post}
	}
}

func (m Model) loadThread() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, requestTimeout)
		defer cancel()
		snap, err := m.api.Thread(ctx, m.slug)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return threadLoadedMsg{snapshot: snap}
	}
}

func (m Model) watch() tea.Cmd {
	return func() tea.Msg {
		updates, err := m.api.Watch(m.ctx, m.slug)
		if err != nil {
			return watchFailedMsg{err: err}
		}
		return watchStartedMsg{updates: updates}
	}
}

func waitForUpdate(updates <-chan client.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		return liveMsg{update: u, ok: ok}
	}
}

func (m Model) send(parentID, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, requestTimeout)
		defer cancel()
		comment, err := m.api.AddComment(ctx, m.slug, parentID, content)
		if err != nil {
			return sendFailedMsg{err: err}
		}
		return commentSentMsg{comment: comment}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-20, 20)
		m.scroll()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		return m, m.spinner.Update(msg)

	case postLoadedMsg:
		m.post = msg.post
		return m, nil

	case threadLoadedMsg:
		m.loading = false
		m.errView.Clear()
		m.setSnapshot(msg.snapshot)
		return m, nil

	case loadFailedMsg:
		m.loading = false
		m.errView = components.NewErrorView(msg.err, "Could not load the thread")
		return m, nil

	case watchStartedMsg:
		m.updates = msg.updates
		m.live = true
		return m, waitForUpdate(m.updates)

	case watchFailedMsg:
		m.live = false
		m.setStatus("live updates unavailable: "+msg.err.Error(), styles.ErrorStyle)
		return m, nil

	case liveMsg:
		if !msg.ok {
			m.live = false
			m.setStatus("live updates stopped", styles.StatusBarStyle)
			return m, nil
		}
		if msg.update.Err != nil {
			m.setStatus(msg.update.Err.Error(), styles.ErrorStyle)
		} else if msg.update.Snapshot != nil {
			m.loading = false
			m.errView.Clear()
			m.setSnapshot(msg.update.Snapshot)
		}
		return m, waitForUpdate(m.updates)

	case commentSentMsg:
		m.setStatus("Comment posted", styles.SuccessStyle)
		if m.live {
			return m, nil
		}
		return m, m.loadThread()

	case sendFailedMsg:
		m.setStatus("could not post: "+msg.err.Error(), styles.ErrorStyle)
		return m, nil

	case tea.KeyMsg:
		if m.replying {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) setStatus(text string, style lipgloss.Style) {
	m.status = text
	m.statusStyle = style
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.stopReplying()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		content := strings.TrimSpace(m.input.Value())
		if content == "" {
			return m, nil
		}
		parentID := ""
		if m.replyTo != nil {
			parentID = m.replyTo.ID
		}
		m.stopReplying()
		m.setStatus("Posting...", styles.StatusBarStyle)
		return m, m.send(parentID, content)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) stopReplying() {
	m.replying = false
	m.replyTo = nil
	m.input.Blur()
	m.input.Reset()
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.move(-m.bodyHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.move(m.bodyHeight())
	case key.Matches(msg, m.keys.Top):
		m.move(-len(m.rows))
	case key.Matches(msg, m.keys.Bottom):
		m.move(len(m.rows))

	case key.Matches(msg, m.keys.Expand):
		m.expand()
	case key.Matches(msg, m.keys.Collapse):
		m.collapse()
	case key.Matches(msg, m.keys.Reset):
		m.expansions = make(map[string]int)
		m.relayout(m.currentKey())

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		m.errView.Clear()
		return m, tea.Batch(m.spinner.Tick, m.loadThread())

	case key.Matches(msg, m.keys.Comment):
		m.replying = true
		m.replyTo = nil
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Reply):
		r, ok := m.current()
		if !ok || r.kind != rowComment {
			return m, nil
		}
		m.replying = true
		m.replyTo = r.node
		return m, m.input.Focus()
	}
	return m, nil
}

func (m *Model) setSnapshot(snap *thread.Snapshot) {
	keep := m.currentKey()
	m.snapshot = snap
	m.relayout(keep)
}

// relayout rebuilds the rows and puts the cursor back on the row with the
// given key when it still exists
func (m *Model) relayout(keep string) {
	if m.snapshot == nil {
		return
	}
	m.rows = flattenViews(m.policy.Apply(m.snapshot.Comments, m.expansions))
	if keep != "" {
		for i, r := range m.rows {
			if r.key() == keep {
				m.cursor = i
				m.scroll()
				return
			}
		}
	}
	m.move(0)
}

func (m Model) current() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) currentKey() string {
	if r, ok := m.current(); ok {
		return r.key()
	}
	return ""
}

func (m *Model) move(delta int) {
	m.cursor += delta
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scroll()
}

// expand reveals another page of replies under the selected comment. On a
// "more" row the cursor stays put and lands on the first revealed reply.
func (m *Model) expand() {
	r, ok := m.current()
	if !ok || r.kind == rowDeep || r.hidden == 0 {
		return
	}
	m.expansions[r.commentID()]++
	if r.kind == rowMore {
		m.relayout("")
		return
	}
	m.relayout(r.key())
}

// collapse hides the replies revealed under the selected comment, or walks
// up to the parent when there is nothing to hide
func (m *Model) collapse() {
	r, ok := m.current()
	if !ok {
		return
	}
	id := r.commentID()
	if r.kind == rowComment && m.expansions[id] == 0 {
		if r.node.ParentID != nil {
			m.selectComment(*r.node.ParentID)
		}
		return
	}
	delete(m.expansions, id)
	m.relayout(id)
}

func (m *Model) selectComment(id string) {
	for i, r := range m.rows {
		if r.kind == rowComment && r.node.ID == id {
			m.cursor = i
			m.scroll()
			return
		}
	}
}

func (m Model) bodyHeight() int {
	h := m.height
	if h == 0 {
		h = 24
	}
	return max(h-10, 3)
}

func (m *Model) scroll() {
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the viewer
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(styles.RenderDivider(m.width - 4))
	b.WriteString("\n")

	switch {
	case m.errView.HasError():
		b.WriteString(m.errView.View())
	case m.loading && m.snapshot == nil:
		b.WriteString(m.spinner.View())
	case len(m.rows) == 0:
		b.WriteString(styles.HelpStyle.Render("No comments yet. Press c to start the conversation."))
	default:
		end := min(m.offset+m.bodyHeight(), len(m.rows))
		for i := m.offset; i < end; i++ {
			b.WriteString(m.renderRow(m.rows[i], i == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.RenderDivider(m.width - 4))
	b.WriteString("\n")
	if m.replying {
		prompt := "Comment: "
		if m.replyTo != nil {
			prompt = "Reply to " + m.replyTo.AuthorName + ": "
		}
		b.WriteString(styles.InputPromptStyle.Render(prompt) + m.input.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))

	return styles.AppStyle.Render(b.String())
}

func (m Model) header() string {
	title := m.slug
	byline := ""
	if m.post != nil {
		title = m.post.Title
		byline = "by " + m.post.AuthorName
	}

	parts := []string{}
	if byline != "" {
		parts = append(parts, byline)
	}
	if m.snapshot != nil {
		parts = append(parts,
			fmt.Sprintf("%d comments", m.snapshot.Total),
			fmt.Sprintf("depth %d", m.snapshot.Depth))
	}

	badge := styles.StatusBarStyle.Render("offline")
	if m.live {
		badge = styles.StatusBarActiveStyle.Render("● live")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		styles.TitleStyle.Render(title), " ", badge) +
		"\n" + styles.SubtitleStyle.Render(strings.Join(parts, " · "))
}

func (m Model) renderRow(r row, selected bool) string {
	guide := styles.Guide(r.level)
	var line string
	switch r.kind {
	case rowMore:
		line = styles.MoreStyle.Render(fmt.Sprintf("▸ %d more %s", r.hidden, plural(r.hidden, "reply", "replies")))
	case rowDeep:
		line = styles.HiddenStyle.Render(fmt.Sprintf("… %d more %s deeper in the thread", r.hidden, plural(r.hidden, "reply", "replies")))
	default:
		n := r.node
		content := strings.Join(strings.Fields(n.Content), " ")
		width := m.width - lipgloss.Width(guide) - len(n.AuthorName) - 24
		line = styles.AuthorStyle.Render(n.AuthorName) + " " +
			styles.Truncate(content, max(width, 20)) +
			styles.MetaStyle.Render(fmt.Sprintf("  ♥%d · %s", n.LikesCount, utils.TimeAgo(n.CreatedAt)))
	}
	if selected {
		return guide + styles.RowSelectedStyle.Render(line)
	}
	return guide + styles.RowStyle.Render(line)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
