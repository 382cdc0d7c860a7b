package comments

import (
	"fmt"
	"io"
	"strings"

	"inkwell/pkg/models"
	"inkwell/pkg/thread"
	"inkwell/pkg/utils"
)

func indent(level int) string {
	return strings.Repeat("  ", level)
}

func writeComment(w io.Writer, c *models.Comment, level int) {
	pad := indent(level)
	marker := "●"
	if level > 0 {
		marker = "└"
	}
	fmt.Fprintf(w, "%s%s %s · %s · ♥%d  [%s]\n", pad, marker, c.AuthorName, utils.TimeAgo(c.CreatedAt), c.LikesCount, c.ID)
	for _, line := range strings.Split(strings.TrimRight(c.Content, "\n"), "\n") {
		fmt.Fprintf(w, "%s  %s\n", pad, line)
	}
}

// writeViews prints a disclosed thread. Hidden replies are listed with the
// --expand value that reveals them.
func writeViews(w io.Writer, slug string, views []thread.View, expansions map[string]int) {
	for _, v := range views {
		writeComment(w, &v.Node.Comment, v.Node.Level)
		writeViews(w, slug, v.Replies, expansions)

		pad := indent(v.Node.Level + 1)
		if v.HiddenReplies > 0 {
			next := make(map[string]int, len(expansions)+1)
			for id, n := range expansions {
				next[id] = n
			}
			next[v.Node.ID]++
			fmt.Fprintf(w, "%s▸ %d more %s (--expand %s)\n", pad, v.HiddenReplies, noun(v.HiddenReplies), thread.FormatExpansions(next))
		}
		if v.HiddenDescendants > 0 {
			fmt.Fprintf(w, "%s… %d more %s deeper (inkwell comments thread %s --all)\n", pad, v.HiddenDescendants, noun(v.HiddenDescendants), slug)
		}
	}
}

// writeTree prints every node of the forest
func writeTree(w io.Writer, forest []*thread.Node) {
	thread.Walk(forest, func(n *thread.Node) bool {
		writeComment(w, &n.Comment, n.Level)
		return true
	})
}

func writeFlat(w io.Writer, comments []models.Comment) {
	for _, c := range comments {
		parent := "-"
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, parent, utils.FormatTimestamp(c.CreatedAt.Local()), c.AuthorName, strings.Join(strings.Fields(c.Content), " "))
	}
}

func noun(n int) string {
	if n == 1 {
		return "reply"
	}
	return "replies"
}
