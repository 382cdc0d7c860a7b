package tui

import "inkwell/pkg/thread"

type rowKind int

const (
	rowComment rowKind = iota
	// rowMore stands for replies hidden behind "show more"
	rowMore
	// rowDeep stands for replies below the rendered depth; they cannot be expanded here
	rowDeep
)

// row is one line of the thread listing
type row struct {
	kind rowKind
	node *thread.Node
	// parentID is the comment a more/deep row belongs under
	parentID string
	level    int
	hidden   int
}

func (r row) key() string {
	switch r.kind {
	case rowMore:
		return "more:" + r.parentID
	case rowDeep:
		return "deep:" + r.parentID
	default:
		return r.node.ID
	}
}

// commentID is the comment the row acts on
func (r row) commentID() string {
	if r.kind == rowComment {
		return r.node.ID
	}
	return r.parentID
}

// flattenViews lays the disclosed views out in reading order
func flattenViews(views []thread.View) []row {
	rows := make([]row, 0, thread.CountViews(views))
	return appendViews(rows, views)
}

func appendViews(rows []row, views []thread.View) []row {
	for _, v := range views {
		rows = append(rows, row{kind: rowComment, node: v.Node, level: v.Node.Level, hidden: v.HiddenReplies})
		rows = appendViews(rows, v.Replies)
		if v.HiddenReplies > 0 {
			rows = append(rows, row{kind: rowMore, parentID: v.Node.ID, level: v.Node.Level + 1, hidden: v.HiddenReplies})
		}
		if v.HiddenDescendants > 0 {
			rows = append(rows, row{kind: rowDeep, parentID: v.Node.ID, level: v.Node.Level + 1, hidden: v.HiddenDescendants})
		}
	}
	return rows
}
