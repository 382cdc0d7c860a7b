package thread

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/pkg/models"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func comment(id, parent string, t int) models.Comment {
	c := models.Comment{
		ID:        id,
		PostID:    "post-1",
		AuthorID:  "user-1",
		Content:   "comment " + id,
		CreatedAt: epoch.Add(time.Duration(t) * time.Second),
	}
	if parent != "" {
		p := parent
		c.ParentID = &p
	}
	return c
}

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

// shape renders the forest as id -> "parent@level" so two forests can be compared.
func shape(forest []*Node) map[string]string {
	out := make(map[string]string)
	var visit func(list []*Node, parent string)
	visit = func(list []*Node, parent string) {
		for _, n := range list {
			out[n.ID] = parent + "@" + string(rune('0'+n.Level))
			visit(n.Replies, n.ID)
		}
	}
	visit(forest, "")
	return out
}

func TestBuild_RepliesAscending(t *testing.T) {
	forest := Build([]models.Comment{
		comment("A", "", 100),
		comment("B", "A", 200),
		comment("C", "A", 150),
	})

	require.Len(t, forest, 1)
	a := forest[0]
	assert.Equal(t, "A", a.ID)
	assert.Equal(t, 0, a.Level)
	assert.Equal(t, []string{"C", "B"}, ids(a.Replies))
	for _, r := range a.Replies {
		assert.Equal(t, 1, r.Level)
		assert.Empty(t, r.Replies)
		assert.NotNil(t, r.Replies)
	}
}

func TestBuild_RootsDescending(t *testing.T) {
	forest := Build([]models.Comment{
		comment("A", "", 100),
		comment("B", "", 200),
	})

	assert.Equal(t, []string{"B", "A"}, ids(forest))
	for _, n := range forest {
		assert.Equal(t, 0, n.Level)
		assert.Empty(t, n.Replies)
	}
}

func TestBuild_DanglingParentBecomesRoot(t *testing.T) {
	forest, report := BuildWithReport([]models.Comment{comment("X", "missing", 100)})

	require.Len(t, forest, 1)
	assert.Equal(t, "X", forest[0].ID)
	assert.Equal(t, 0, forest[0].Level)
	assert.Equal(t, []string{"X"}, report.Dangling)
	assert.False(t, report.Empty())
}

func TestBuild_Empty(t *testing.T) {
	forest := Build(nil)
	assert.NotNil(t, forest)
	assert.Empty(t, forest)
	assert.Equal(t, 0, CountAll(forest))
	assert.Equal(t, 0, Depth(forest))

	forest, report := BuildWithReport([]models.Comment{})
	assert.Empty(t, forest)
	assert.True(t, report.Empty())
}

func TestBuild_Chain(t *testing.T) {
	forest := Build([]models.Comment{
		comment("C", "B", 300),
		comment("A", "", 100),
		comment("B", "A", 200),
	})

	flat := Flatten(forest)
	assert.Equal(t, []string{"A", "B", "C"}, ids(flat))
	assert.Equal(t, 0, flat[0].Level)
	assert.Equal(t, 1, flat[1].Level)
	assert.Equal(t, 2, flat[2].Level)
	assert.Equal(t, 3, Depth(forest))
}

func TestBuild_ChildBeforeParentGetsCorrectLevel(t *testing.T) {
	// the deepest reply comes first and is the oldest by clock skew
	forest := Build([]models.Comment{
		comment("D", "C", 10),
		comment("C", "B", 300),
		comment("B", "A", 200),
		comment("A", "", 100),
	})

	d, ok := FindByID(forest, "D")
	require.True(t, ok)
	assert.Equal(t, 3, d.Level)
}

func TestBuild_TimestampTiesBrokenByID(t *testing.T) {
	forest := Build([]models.Comment{
		comment("r1", "", 100),
		comment("r2", "", 100),
		comment("c2", "r1", 200),
		comment("c1", "r1", 200),
	})

	assert.Equal(t, []string{"r2", "r1"}, ids(forest))
	assert.Equal(t, []string{"c1", "c2"}, ids(forest[1].Replies))
}

func TestBuild_SelfReference(t *testing.T) {
	forest, report := BuildWithReport([]models.Comment{
		comment("A", "A", 100),
		comment("B", "A", 200),
	})

	require.Len(t, forest, 1)
	assert.Equal(t, "A", forest[0].ID)
	assert.Equal(t, []string{"B"}, ids(forest[0].Replies))
	assert.Equal(t, []string{"A"}, report.SelfReferences)
	assert.Equal(t, 2, CountAll(forest))
}

func TestBuild_CycleCutAtOldestMember(t *testing.T) {
	forest, report := BuildWithReport([]models.Comment{
		comment("A", "B", 200),
		comment("B", "A", 100),
		comment("X", "A", 50), // hangs off the cycle and is older than both members
		comment("R", "", 10),
	})

	assert.Equal(t, []string{"B"}, report.Cycles)
	assert.Equal(t, 4, CountAll(forest))
	assert.Equal(t, []string{"B", "R"}, ids(forest))

	b := forest[0]
	assert.Equal(t, 0, b.Level)
	require.Equal(t, []string{"A"}, ids(b.Replies))
	a := b.Replies[0]
	assert.Equal(t, 1, a.Level)
	assert.Equal(t, []string{"X"}, ids(a.Replies))
	assert.Equal(t, 2, a.Replies[0].Level)
}

func TestBuild_TwoCycles(t *testing.T) {
	forest, report := BuildWithReport([]models.Comment{
		comment("A", "B", 1),
		comment("B", "A", 2),
		comment("C", "D", 4),
		comment("D", "E", 3),
		comment("E", "C", 5),
	})

	assert.Equal(t, []string{"A", "D"}, report.Cycles)
	assert.Equal(t, 5, CountAll(forest))
	assert.Equal(t, []string{"D", "A"}, ids(forest))
}

func TestBuild_DuplicateIDsFirstWins(t *testing.T) {
	first := comment("A", "", 100)
	second := comment("A", "", 300)
	second.Content = "second copy"

	forest, report := BuildWithReport([]models.Comment{first, second})

	require.Len(t, forest, 1)
	assert.Equal(t, "comment A", forest[0].Content)
	assert.Equal(t, []string{"A"}, report.Duplicates)
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	input := []models.Comment{comment("A", "", 100)}
	forest := Build(input)
	forest[0].Content = "changed"
	assert.Equal(t, "comment A", input[0].Content)
}

func sampleThread() []models.Comment {
	return []models.Comment{
		comment("a", "", 10),
		comment("b", "", 20),
		comment("c", "", 20),
		comment("a1", "a", 30),
		comment("a2", "a", 25),
		comment("a3", "a", 30),
		comment("a1x", "a1", 40),
		comment("a1y", "a1", 41),
		comment("a1x1", "a1x", 50),
		comment("b1", "b", 21),
		comment("orphan", "gone", 5),
		comment("self", "self", 60),
		comment("c1", "c", 22),
		comment("c1a", "c1", 23),
	}
}

func TestBuild_Properties(t *testing.T) {
	input := sampleThread()
	reference := Build(input)
	refShape := shape(reference)
	refOrder := ids(Flatten(reference))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		perm := make([]models.Comment, len(input))
		copy(perm, input)
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })

		forest := Build(perm)

		// same topology and order for any input order
		assert.Equal(t, refShape, shape(forest))
		assert.Equal(t, refOrder, ids(Flatten(forest)))

		// count conservation and flatten round trip
		assert.Equal(t, len(perm), CountAll(forest))
		flat := Flatten(forest)
		seen := make(map[string]int)
		for _, n := range flat {
			seen[n.ID]++
		}
		for _, c := range perm {
			assert.Equal(t, 1, seen[c.ID], c.ID)
		}

		// levels and ordering
		for j := 1; j < len(forest); j++ {
			assert.False(t, forest[j].CreatedAt.After(forest[j-1].CreatedAt))
		}
		for _, root := range forest {
			assert.Equal(t, 0, root.Level)
		}
		Walk(forest, func(n *Node) bool {
			for j, r := range n.Replies {
				assert.Equal(t, n.Level+1, r.Level)
				if j > 0 {
					assert.False(t, r.CreatedAt.Before(n.Replies[j-1].CreatedAt))
				}
			}
			return true
		})
	}
}

func TestFlatten_PreOrder(t *testing.T) {
	forest := Build(sampleThread())
	assert.Equal(t,
		[]string{"self", "c", "c1", "c1a", "b", "b1", "a", "a2", "a1", "a1x", "a1x1", "a1y", "a3", "orphan"},
		ids(Flatten(forest)))
}

func TestFindByID(t *testing.T) {
	forest := Build(sampleThread())

	n, ok := FindByID(forest, "a1x1")
	require.True(t, ok)
	assert.Equal(t, 3, n.Level)

	_, ok = FindByID(forest, "nope")
	assert.False(t, ok)

	_, ok = FindByID(nil, "a")
	assert.False(t, ok)
}

func TestWalk_Stops(t *testing.T) {
	forest := Build(sampleThread())
	visited := 0
	Walk(forest, func(n *Node) bool {
		visited++
		return n.ID != "c1"
	})
	assert.Equal(t, 3, visited)
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 4, Depth(Build(sampleThread())))
	assert.Equal(t, 1, Depth(Build([]models.Comment{comment("a", "", 1)})))
}
