package thread

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/pkg/models"
)

// chain returns a single root followed by depth-1 nested replies.
func chain(depth int) []models.Comment {
	out := []models.Comment{comment("n0", "", 0)}
	for i := 1; i < depth; i++ {
		out = append(out, comment(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i-1), i))
	}
	return out
}

func fanOut(parent string, n int, level int) []models.Comment {
	out := make([]models.Comment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, comment(fmt.Sprintf("%s-%d", parent, i), parent, 100*level+i+1))
	}
	return out
}

func TestPolicy_Validate(t *testing.T) {
	p := Policy{InitialReplies: 2, DeepReplies: -1}.Validate()
	d := DefaultPolicy()
	assert.Equal(t, 2, p.InitialReplies)
	assert.Equal(t, d.DeepReplies, p.DeepReplies)
	assert.Equal(t, d.DeepLevel, p.DeepLevel)
	assert.Equal(t, d.MaxDepth, p.MaxDepth)
	assert.Equal(t, d.PageSize, p.PageSize)
}

func TestApply_InitialReplies(t *testing.T) {
	input := append([]models.Comment{comment("root", "", 0)}, fanOut("root", 5, 0)...)
	forest := Build(input)

	views := DefaultPolicy().Apply(forest, nil)
	require.Len(t, views, 1)
	assert.Len(t, views[0].Replies, 3)
	assert.Equal(t, 2, views[0].HiddenReplies)
	assert.Equal(t, "root-0", views[0].Replies[0].Node.ID)
	assert.Equal(t, 4, CountViews(views))
}

func TestApply_ShowMore(t *testing.T) {
	input := append([]models.Comment{comment("root", "", 0)}, fanOut("root", 12, 0)...)
	forest := Build(input)
	p := DefaultPolicy()

	views := p.Apply(forest, map[string]int{"root": 1})
	assert.Len(t, views[0].Replies, 8)
	assert.Equal(t, 4, views[0].HiddenReplies)

	views = p.Apply(forest, map[string]int{"root": 2})
	assert.Len(t, views[0].Replies, 12)
	assert.Equal(t, 0, views[0].HiddenReplies)

	// the forest is untouched
	assert.Len(t, forest[0].Replies, 12)
}

func TestApply_DeepLevelShowsFewer(t *testing.T) {
	input := chain(4) // n3 sits at level 3
	input = append(input, fanOut("n3", 3, 4)...)
	forest := Build(input)

	views := DefaultPolicy().Apply(forest, nil)
	v := views[0]
	for i := 0; i < 3; i++ {
		require.Len(t, v.Replies, 1)
		v = v.Replies[0]
	}
	assert.Equal(t, "n3", v.Node.ID)
	assert.Len(t, v.Replies, 1)
	assert.Equal(t, 2, v.HiddenReplies)
}

func TestApply_MaxDepthHidesDescendants(t *testing.T) {
	forest := Build(chain(9)) // levels 0..8
	views := DefaultPolicy().Apply(forest, map[string]int{"n5": 3})

	v := views[0]
	for v.Node.Level < 5 {
		require.Len(t, v.Replies, 1)
		v = v.Replies[0]
	}
	assert.Equal(t, "n5", v.Node.ID)
	assert.Empty(t, v.Replies)
	assert.Equal(t, 0, v.HiddenReplies)
	assert.Equal(t, 3, v.HiddenDescendants)
	assert.Equal(t, 6, CountViews(views))
}

func TestPolicy_Visible(t *testing.T) {
	p := DefaultPolicy()
	n := &Node{Level: 0, Replies: make([]*Node, 10)}
	assert.Equal(t, 3, p.Visible(n, 0))
	assert.Equal(t, 8, p.Visible(n, 1))
	assert.Equal(t, 10, p.Visible(n, 5))
	assert.Equal(t, 3, p.Visible(n, -2))

	n.Level = 3
	assert.Equal(t, 1, p.Visible(n, 0))
	n.Level = 5
	assert.Equal(t, 0, p.Visible(n, 4))
}

func TestPolicy_VisibleHugeExpansionCount(t *testing.T) {
	p := DefaultPolicy()
	n := &Node{Replies: make([]*Node, 10)}
	assert.Equal(t, 10, p.Visible(n, math.MaxInt/p.PageSize+1))
	assert.Equal(t, 10, p.Visible(n, math.MaxInt))

	forest := Build([]models.Comment{comment("A", "", 1), comment("B", "A", 2)})
	var views []View
	require.NotPanics(t, func() {
		views = p.Apply(forest, map[string]int{"A": 1844674407370955162})
	})
	require.Len(t, views, 1)
	assert.Len(t, views[0].Replies, 1)
	assert.Equal(t, 0, views[0].HiddenReplies)
}
